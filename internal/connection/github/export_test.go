package github

// HasOpenTicket reports whether the snapshot holds a ticket for artistName.
func (c *Client) HasOpenTicket(artistName string) bool {
	_, ok := c.open[ticketKey(artistName)]
	return ok
}

// OpenTickets returns the snapshot loaded at construction.
func (c *Client) OpenTickets() []Ticket {
	out := make([]Ticket, 0, len(c.open))
	for _, t := range c.open {
		out = append(out, t)
	}
	return out
}
