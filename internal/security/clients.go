package security

// In-memory client registry (replace with DB/config later)
type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.read","orders.write"}
	Enabled bool
}

var Clients = map[string]Client{
	"storefront":  {ID: "storefront", Secret: "storefront-secret", Perms: []string{"orders.read", "orders.write", "billing.read"}, Enabled: true},
	"svc-billing": {ID: "svc-billing", Secret: "billing-secret", Perms: []string{"billing.read", "billing.write"}, Enabled: true},
	"svc-support": {ID: "svc-support", Secret: "support-secret", Perms: []string{"orders.read"}, Enabled: true},
}
