package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order lifecycle status.
const (
	OrderStatusConfirmed = "confirmed"
)

// Payment status values. An order is created as pending_settlement and
// moves to settled or failed exactly once, after the facilitator answers.
const (
	PaymentStatusPending = "pending_settlement"
	PaymentStatusSettled = "settled"
	PaymentStatusFailed  = "failed"
)

// PaymentMethodX402 marks orders paid through the x402 USDC flow.
const PaymentMethodX402 = "x402_usdc"

// Product is a catalog item. Category decides shipping: carts made up
// entirely of digital-category products ship nothing.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"type:varchar(200);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Category      string          `gorm:"type:varchar(100);index" json:"category"`
	ImageURL      string          `gorm:"type:varchar(500)" json:"image_url"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Cart is a buyer's session-scoped shopping cart.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	SessionID string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"session_id"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;index" json:"cart_id"`
	ProductID uint      `gorm:"not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is a committed purchase. Amounts are captured at checkout time, so
// later catalog price changes never alter a past order.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	SessionID   string `gorm:"type:varchar(100);index" json:"session_id"`

	CustomerEmail string `gorm:"type:varchar(200)" json:"customer_email"`
	CustomerName  string `gorm:"type:varchar(200)" json:"customer_name"`
	AgentKeyID    string `gorm:"type:varchar(100);index" json:"agent_key_id"`

	Subtotal     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"tax_amount"`
	ShippingCost decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"shipping_cost"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`

	Status        string `gorm:"type:varchar(30);not null" json:"status"`
	PaymentMethod string `gorm:"type:varchar(30);not null" json:"payment_method"`
	PaymentStatus string `gorm:"type:varchar(30);not null;index" json:"payment_status"`

	// PaymentNetwork and PaymentTransaction record where and how the order
	// settled on-chain. Empty until settlement succeeds.
	PaymentNetwork     string `gorm:"type:varchar(100)" json:"payment_network,omitempty"`
	PaymentTransaction string `gorm:"type:varchar(200)" json:"payment_transaction,omitempty"`

	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is one product line in an order, with the unit price captured
// at purchase time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Product   Product         `gorm:"foreignKey:ProductID" json:"product"`
}
