package carrier

// RateCollection is an ordered sequence of rates keyed by service code for
// merge purposes. Adding a rate whose code is already present sums the
// prices in place, keeping the first-added entry's position; a new code is
// appended. The key is the service code alone, not (carrier, code): two
// carriers reusing the same code string will have their prices summed.
// That matches how multi-package shipments fold one price per service tier
// and is kept deliberately.
type RateCollection struct {
	items []*Rate
}

// NewRateCollection builds a collection, applying the merge rule to the
// given rates in order.
func NewRateCollection(rates ...*Rate) *RateCollection {
	c := &RateCollection{}
	for _, r := range rates {
		c.Add(r)
	}
	return c
}

// Add merges a rate into the collection by service code.
func (c *RateCollection) Add(rate *Rate) *RateCollection {
	for _, item := range c.items {
		if item.Service.Code == rate.Service.Code {
			item.Price = item.Price.Add(rate.Price)
			return c
		}
	}
	c.items = append(c.items, rate)
	return c
}

// Merge applies Add for every rate in other, preserving other's order.
func (c *RateCollection) Merge(other *RateCollection) *RateCollection {
	if other == nil {
		return c
	}
	for _, r := range other.items {
		c.Add(r)
	}
	return c
}

// Rates returns the underlying entries in first-appearance order.
func (c *RateCollection) Rates() []*Rate {
	return c.items
}

// Len returns the number of distinct service codes held.
func (c *RateCollection) Len() int {
	return len(c.items)
}

// Find returns the entry for a service code, if present.
func (c *RateCollection) Find(code string) (*Rate, bool) {
	for _, item := range c.items {
		if item.Service.Code == code {
			return item, true
		}
	}
	return nil, false
}
