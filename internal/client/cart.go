package client

import "github.com/grabandgo/campus-orders/internal/core/domain"

// CartLine is one menu item and how many of it the student wants.
type CartLine struct {
	Item     domain.MenuItem
	Quantity int
}

// Cart holds lines from a single restaurant.
type Cart struct {
	RestaurantID string
	Lines        []CartLine
}

// Total is the sum of price × quantity over all lines. Quantities never
// exceed domain.MaxLineQuantity.
func (c Cart) Total() domain.Money {
	var total domain.Money
	for _, l := range c.Lines {
		total += l.Item.Price.Times(l.Quantity)
	}
	return total
}

func (c Cart) Empty() bool { return len(c.Lines) == 0 }

func (c Cart) clone() Cart {
	c.Lines = append([]CartLine(nil), c.Lines...)
	return c
}

func (c *Cart) add(item domain.MenuItem) {
	c.RestaurantID = item.RestaurantID
	for i := range c.Lines {
		if c.Lines[i].Item.ID == item.ID {
			c.Lines[i].Quantity = min(c.Lines[i].Quantity+1, domain.MaxLineQuantity)
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{Item: item, Quantity: 1})
}

func (c *Cart) setQuantity(menuItemID string, qty int) bool {
	for i := range c.Lines {
		if c.Lines[i].Item.ID != menuItemID {
			continue
		}
		if qty <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		} else {
			c.Lines[i].Quantity = min(qty, domain.MaxLineQuantity)
		}
		if len(c.Lines) == 0 {
			c.RestaurantID = ""
		}
		return true
	}
	return false
}
