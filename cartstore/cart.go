package cartstore

// Product is a catalog entry the consumer asks to put in the cart.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	Price    float64 `json:"price"`
}

// LineItem is one product in the cart with its accumulated quantity.
type LineItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Cart is the ordered list of line items. Each ID appears at most once and
// every Quantity is at least 1.
type Cart []LineItem

func (c Cart) indexOf(id string) int {
	for i, item := range c {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// TotalItems sums the quantities of all line items.
func (c Cart) TotalItems() int {
	total := 0
	for _, item := range c {
		total += item.Quantity
	}
	return total
}

// AddProduct bumps the quantity of p if it is already in the cart, otherwise
// appends it with quantity 1.
func AddProduct(c Cart, p Product) Cart {
	next := c.Clone()
	if i := next.indexOf(p.ID); i >= 0 {
		next[i].Quantity++
		return next
	}
	return append(next, LineItem{Product: p, Quantity: 1})
}

// IncrementItem adds one to the quantity of id. The second result is false
// when id is not in the cart, in which case c is returned untouched.
func IncrementItem(c Cart, id string) (Cart, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return c, false
	}
	next := c.Clone()
	next[i].Quantity++
	return next, true
}

// DecrementItem removes one from the quantity of id, dropping the line item
// when it would reach zero. The second result is false when id is not in the
// cart.
func DecrementItem(c Cart, id string) (Cart, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return c, false
	}
	if c[i].Quantity <= 1 {
		next := make(Cart, 0, len(c)-1)
		next = append(next, c[:i]...)
		return append(next, c[i+1:]...), true
	}
	next := c.Clone()
	next[i].Quantity--
	return next, true
}

// normalize repairs a snapshot read from storage: items with a non-positive
// quantity are dropped and repeated ids are folded into the first occurrence.
func normalize(c Cart) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.Quantity < 1 {
			continue
		}
		if i := out.indexOf(item.ID); i >= 0 {
			out[i].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}
