package domain

type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Stock       int     `json:"stock"`
}

// StockInfo is the read-side view of a product's stock.
type StockInfo struct {
	ProductID int64 `json:"productId"`
	Stock     int   `json:"stock"`
	Views     int64 `json:"views"`
}
