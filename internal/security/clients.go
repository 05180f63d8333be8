package security

import "strconv"

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	UserID  int64    // shop account the client acts as, 0 for service clients
	Perms   []string // e.g. {"orders.read","orders.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"storefront-web":  {ID: "storefront-web", Secret: "storefront-secret", UserID: 1, Perms: []string{"orders.read", "orders.write"}, Enabled: true},
	"svc-back-office": {ID: "svc-back-office", Secret: "back-office-secret", Perms: []string{"orders.read", "orders.admin"}, Enabled: true},
	"svc-analytics":   {ID: "svc-analytics", Secret: "ana-secret", Perms: []string{"orders.read"}, Enabled: true},
}

func FormatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}
