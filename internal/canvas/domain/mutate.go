package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const maxItemText = 500

// ItemInput is the editable part of an item. Nil fields are left unchanged
// on update.
type ItemInput struct {
	Text  *string `json:"text"`
	Notes *string `json:"notes"`
	Color *string `json:"color"`
}

func (in ItemInput) validate(requireText bool) error {
	if in.Text == nil {
		if requireText {
			return fmt.Errorf("%w: text is required", ErrValidation)
		}
		return nil
	}
	t := strings.TrimSpace(*in.Text)
	if t == "" {
		return fmt.Errorf("%w: text is required", ErrValidation)
	}
	if utf8.RuneCountInString(t) > maxItemText {
		return fmt.Errorf("%w: text must be at most %d characters", ErrValidation, maxItemText)
	}
	return nil
}

func (in ItemInput) apply(it *Item) {
	if in.Text != nil {
		it.Text = strings.TrimSpace(*in.Text)
	}
	if in.Notes != nil {
		it.Notes = *in.Notes
	}
	if in.Color != nil {
		it.Color = *in.Color
	}
}

// find returns the block and index holding itemID.
func (d *Data) find(itemID string) (string, int, bool) {
	for block, items := range d.Blocks {
		for i := range items {
			if items[i].ID == itemID {
				return block, i, true
			}
		}
	}
	return "", 0, false
}

// AddItem appends a new item to block.
func (d *Data) AddItem(k Kind, block string, it Item, in ItemInput) (*Item, error) {
	if !k.HasBlock(block) {
		return nil, fmt.Errorf("%w %q for %s", ErrUnknownBlock, block, k.Name)
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}
	in.apply(&it)
	if d.Blocks == nil {
		d.Blocks = map[string][]Item{}
	}
	d.Blocks[block] = append(d.Blocks[block], it)
	return &it, nil
}

// UpdateItem edits an item in place.
func (d *Data) UpdateItem(itemID string, in ItemInput, now time.Time) (*Item, error) {
	block, i, ok := d.find(itemID)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrItemNotFound, itemID)
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}
	it := &d.Blocks[block][i]
	in.apply(it)
	it.UpdatedAt = now
	out := *it
	return &out, nil
}

// MoveItem moves an item to position in block. Positions past the end
// append.
func (d *Data) MoveItem(k Kind, itemID, block string, position int, now time.Time) (*Item, error) {
	if !k.HasBlock(block) {
		return nil, fmt.Errorf("%w %q for %s", ErrUnknownBlock, block, k.Name)
	}
	if position < 0 {
		return nil, fmt.Errorf("%w: position must not be negative", ErrValidation)
	}
	from, i, ok := d.find(itemID)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrItemNotFound, itemID)
	}

	it := d.Blocks[from][i]
	d.Blocks[from] = append(d.Blocks[from][:i:i], d.Blocks[from][i+1:]...)

	dst := d.Blocks[block]
	if position > len(dst) {
		position = len(dst)
	}
	it.UpdatedAt = now
	dst = append(dst, Item{})
	copy(dst[position+1:], dst[position:])
	dst[position] = it
	d.Blocks[block] = dst
	return &it, nil
}

// DeleteItem removes an item from whichever block holds it.
func (d *Data) DeleteItem(itemID string) error {
	block, i, ok := d.find(itemID)
	if !ok {
		return fmt.Errorf("%w %q", ErrItemNotFound, itemID)
	}
	d.Blocks[block] = append(d.Blocks[block][:i:i], d.Blocks[block][i+1:]...)
	return nil
}
