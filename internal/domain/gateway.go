package domain

// GatewayID identifies one of the supported payment gateway families.
type GatewayID string

const (
	GatewayXPay     GatewayID = "XPAY"
	GatewayVPos     GatewayID = "VPOS"
	GatewayRedirect GatewayID = "REDIRECT"
	GatewayNPG      GatewayID = "NPG"
)
