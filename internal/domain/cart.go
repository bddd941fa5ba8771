package domain

type CartItem struct {
	ID        int64   `json:"id"`
	CartID    int64   `json:"-"`
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Cart is a user's single active cart. Total is derived and is
// recomputed on every read; it is never trusted from storage.
type Cart struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"userId"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
}

// FindItem returns the index of the item with the given id, or -1.
func (c *Cart) FindItem(itemID int64) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// CalculateTotal sums price * quantity over all items.
func (c *Cart) CalculateTotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
