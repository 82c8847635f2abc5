package mdbxt

import (
	"github.com/erigontech/mdbx-go/mdbx"
)

// Cursor is a movable position within one database, bound to one
// transaction.
//
// Every key and value returned by a cursor is a borrowed view into the
// environment's mapping. A view stays valid until the owning transaction
// ends or, on a writable cursor, until the next mutation or movement. Copy
// out before that point.
type Cursor struct {
	cur *mdbx.Cursor
	txn *Txn
	db  DB
}

// DB returns the database the cursor iterates.
func (c *Cursor) DB() DB {
	return c.db
}

// Close releases the cursor. Cursors of write transactions must be closed
// before the transaction ends.
func (c *Cursor) Close() {
	c.cur.Close()
}

// Renew rebinds the cursor to a new read-only transaction over the same
// database, avoiding a fresh allocation.
func (c *Cursor) Renew(txn *Txn) error {
	if err := txn.usable("cursor_renew"); err != nil {
		return err
	}
	if err := operr("cursor_renew", c.cur.Renew(txn.txn)); err != nil {
		return err
	}
	c.txn = txn
	return nil
}

// move funnels every positioning call through the transaction guard and the
// error boundary.
func (c *Cursor) move(op string, setKey, setVal []byte, engineOp uint) ([]byte, []byte, error) {
	if err := c.txn.usable(op); err != nil {
		return nil, nil, err
	}
	k, v, err := c.cur.Get(setKey, setVal, engineOp)
	if err != nil {
		return nil, nil, operr(op, err)
	}
	return k, v, nil
}

// First positions at the first key and returns the pair there.
func (c *Cursor) First() (key, value []byte, err error) {
	return c.move("cursor_first", nil, nil, mdbx.First)
}

// Last positions at the last key and returns the pair there.
func (c *Cursor) Last() (key, value []byte, err error) {
	return c.move("cursor_last", nil, nil, mdbx.Last)
}

// Current returns the pair at the cursor's position without moving.
func (c *Cursor) Current() (key, value []byte, err error) {
	return c.move("cursor_current", nil, nil, mdbx.GetCurrent)
}

// Next advances to the next pair in full (key, item) order, walking every
// duplicate item before the following key.
func (c *Cursor) Next() (key, value []byte, err error) {
	return c.move("cursor_next", nil, nil, mdbx.Next)
}

// Prev steps back to the previous pair in full (key, item) order.
func (c *Cursor) Prev() (key, value []byte, err error) {
	return c.move("cursor_prev", nil, nil, mdbx.Prev)
}

// FirstItem positions at the first duplicate item of the current key.
func (c *Cursor) FirstItem() (key, value []byte, err error) {
	if _, _, err := c.move("cursor_first_item", nil, nil, mdbx.FirstDup); err != nil {
		return nil, nil, err
	}
	// The duplicate positioning ops return only the value; re-read the
	// full pair.
	return c.move("cursor_first_item", nil, nil, mdbx.GetCurrent)
}

// LastItem positions at the last duplicate item of the current key.
func (c *Cursor) LastItem() (key, value []byte, err error) {
	if _, _, err := c.move("cursor_last_item", nil, nil, mdbx.LastDup); err != nil {
		return nil, nil, err
	}
	return c.move("cursor_last_item", nil, nil, mdbx.GetCurrent)
}

// NextItem advances within the current key's item set, failing with
// NotFound at its end without moving past the boundary.
func (c *Cursor) NextItem() (key, value []byte, err error) {
	return c.move("cursor_next_item", nil, nil, mdbx.NextDup)
}

// PrevItem steps back within the current key's item set, failing with
// NotFound at its start without moving before the boundary.
func (c *Cursor) PrevItem() (key, value []byte, err error) {
	return c.move("cursor_prev_item", nil, nil, mdbx.PrevDup)
}

// NextKey skips to the first item of the next distinct key, abandoning any
// remaining items of the current one.
func (c *Cursor) NextKey() (key, value []byte, err error) {
	return c.move("cursor_next_key", nil, nil, mdbx.NextNoDup)
}

// PrevKey skips to the last item of the previous distinct key.
func (c *Cursor) PrevKey() (key, value []byte, err error) {
	return c.move("cursor_prev_key", nil, nil, mdbx.PrevNoDup)
}

// SeekTo positions at exactly key, failing with NotFound when absent.
func (c *Cursor) SeekTo(key []byte) (k, value []byte, err error) {
	return c.move("cursor_seek", key, nil, mdbx.SetKey)
}

// SeekFrom positions at the first key greater than or equal to key.
func (c *Cursor) SeekFrom(key []byte) (k, value []byte, err error) {
	return c.move("cursor_seek_from", key, nil, mdbx.SetRange)
}

// SeekToItem positions at exactly the (key, item) pair in a duplicate
// database.
func (c *Cursor) SeekToItem(key, item []byte) (k, value []byte, err error) {
	return c.move("cursor_seek_item", key, item, mdbx.GetBoth)
}

// SeekFromItem positions at key's first item greater than or equal to item.
func (c *Cursor) SeekFromItem(key, item []byte) (k, value []byte, err error) {
	return c.move("cursor_seek_item_from", key, item, mdbx.GetBothRange)
}

// Count returns how many duplicate items the current key holds.
func (c *Cursor) Count() (uint64, error) {
	if err := c.txn.usable("cursor_count"); err != nil {
		return 0, err
	}
	n, err := c.cur.Count()
	if err != nil {
		return 0, operr("cursor_count", err)
	}
	return n, nil
}

// Put stores value under key at this cursor, leaving the cursor positioned
// on the new entry.
func (c *Cursor) Put(key, value []byte, flags PutFlags) error {
	if err := c.txn.usable("cursor_put"); err != nil {
		return err
	}
	return operr("cursor_put", c.cur.Put(key, value, flags.Mask()))
}

// GetOrPut atomically stores value under key if absent, with the same
// result convention as Txn.GetOrPut. On an existing key the cursor ends up
// positioned on it.
func (c *Cursor) GetOrPut(key, value []byte) ([]byte, error) {
	if err := c.txn.usable("cursor_get_or_put"); err != nil {
		return nil, err
	}
	err := operr("cursor_get_or_put", c.cur.Put(key, value, bitNoOverwrite))
	if err == nil {
		return nil, nil
	}
	if !IsAlreadyExists(err) {
		return nil, err
	}
	_, existing, serr := c.move("cursor_get_or_put", key, nil, mdbx.SetKey)
	if serr != nil {
		return nil, serr
	}
	return existing, nil
}

// Reserve allocates n bytes under key and returns the mutable mapped
// buffer, with the same found-existing convention as Txn.Reserve.
func (c *Cursor) Reserve(key []byte, n int, flags PutFlags) (buf []byte, found bool, err error) {
	if err := c.txn.usable("cursor_reserve"); err != nil {
		return nil, false, err
	}
	buf, rerr := c.cur.PutReserve(key, n, flags.Mask())
	err = operr("cursor_reserve", rerr)
	if err == nil {
		return buf, false, nil
	}
	if !IsAlreadyExists(err) {
		return nil, false, err
	}
	_, existing, serr := c.move("cursor_reserve", key, nil, mdbx.SetKey)
	if serr != nil {
		return nil, false, serr
	}
	return existing, true, nil
}

// UpdateInPlace replaces the value at the cursor's position without moving
// it and without changing the key.
//
// Duplicate databases order their items by value bytes, so an in-place
// rewrite cannot preserve the item's identity there; the call fails with
// IncompatibleOperation instead of corrupting the order.
func (c *Cursor) UpdateInPlace(value []byte) error {
	if c.db.flags.AllowDuplicateKeys {
		return &Error{Kind: KindIncompatibleOperation, Op: "cursor_update_in_place"}
	}
	key, _, err := c.Current()
	if err != nil {
		return err
	}
	return operr("cursor_update_in_place", c.cur.Put(key, value, bitCurrent))
}

// ReserveInPlace replaces the value at the cursor's position with an
// uninitialized n-byte buffer and returns it for the caller to fill. Same
// duplicate-database restriction as UpdateInPlace.
func (c *Cursor) ReserveInPlace(n int) ([]byte, error) {
	if c.db.flags.AllowDuplicateKeys {
		return nil, &Error{Kind: KindIncompatibleOperation, Op: "cursor_reserve_in_place"}
	}
	key, _, err := c.Current()
	if err != nil {
		return nil, err
	}
	buf, rerr := c.cur.PutReserve(key, n, bitCurrent)
	if rerr != nil {
		return nil, operr("cursor_reserve_in_place", rerr)
	}
	return buf, nil
}

// Del removes the entry at the cursor's position; in a duplicate database
// only the current item. Deleting while unpositioned is a NotFound error,
// not a fault.
func (c *Cursor) Del() error {
	return c.del("cursor_del", 0)
}

// DelAll removes the current key together with every duplicate item under
// it.
func (c *Cursor) DelAll() error {
	return c.del("cursor_del_all", bitAllDups)
}

func (c *Cursor) del(op string, flags uint) error {
	if err := c.txn.usable(op); err != nil {
		return err
	}
	if _, _, err := c.cur.Get(nil, nil, mdbx.GetCurrent); err != nil {
		return &Error{Kind: KindNotFound, Op: op}
	}
	return operr(op, c.cur.Del(flags))
}

// Page is a contiguous run of fixed-size duplicate items sharing one key,
// fetched or stored in a single engine call. The engine may split one key's
// items across several physical pages; callers check Len against the
// expected total and continue with NextPage.
type Page struct {
	// Key is the key every item in the page belongs to.
	Key []byte

	data   []byte
	stride int
}

// Len returns the number of items in the page.
func (p *Page) Len() int {
	if p.stride == 0 {
		return 0
	}
	return len(p.data) / p.stride
}

// Stride returns the fixed item size.
func (p *Page) Stride() int {
	return p.stride
}

// Val returns the i-th item, a borrowed view like any cursor result.
func (p *Page) Val(i int) []byte {
	return p.data[i*p.stride : (i+1)*p.stride]
}

// Vals returns every item in the page as borrowed views.
func (p *Page) Vals() [][]byte {
	n := p.Len()
	vals := make([][]byte, n)
	for i := range vals {
		vals[i] = p.Val(i)
	}
	return vals
}

// Bytes returns the raw page contents.
func (p *Page) Bytes() []byte {
	return p.data
}

// PutBatch stores a contiguous run of fixed-size items under one key in a
// single engine call. data must be a whole number of itemSize-byte items
// and the database must hold fixed-size duplicates.
func (c *Cursor) PutBatch(key, data []byte, itemSize int, flags PutFlags) error {
	if !c.db.flags.DuplicatesAreFixedSize && !c.db.flags.DuplicatesAreIntegers {
		return &Error{Kind: KindIncompatibleOperation, Op: "cursor_put_batch"}
	}
	if itemSize <= 0 || len(data)%itemSize != 0 {
		return &Error{Kind: KindUnsupportedSize, Op: "cursor_put_batch"}
	}
	if err := c.txn.usable("cursor_put_batch"); err != nil {
		return err
	}
	return operr("cursor_put_batch", c.cur.PutMulti(key, data, itemSize, flags.Mask()))
}

// CurrentPage returns the run of fixed-size items at the cursor's current
// key, starting at the current item.
func (c *Cursor) CurrentPage(itemSize int) (*Page, error) {
	return c.page("cursor_current_page", itemSize, mdbx.GetMultiple)
}

// NextPage returns the current key's next run of fixed-size items, failing
// with NotFound once the key is exhausted.
func (c *Cursor) NextPage(itemSize int) (*Page, error) {
	return c.page("cursor_next_page", itemSize, mdbx.NextMultiple)
}

// PrevPage returns the current key's previous run of fixed-size items.
func (c *Cursor) PrevPage(itemSize int) (*Page, error) {
	return c.page("cursor_prev_page", itemSize, mdbx.PrevMultiple)
}

func (c *Cursor) page(op string, itemSize int, engineOp uint) (*Page, error) {
	if !c.db.flags.DuplicatesAreFixedSize && !c.db.flags.DuplicatesAreIntegers {
		return nil, &Error{Kind: KindIncompatibleOperation, Op: op}
	}
	if itemSize <= 0 {
		return nil, &Error{Kind: KindUnsupportedSize, Op: op}
	}
	key, data, err := c.move(op, nil, nil, engineOp)
	if err != nil {
		return nil, err
	}
	if len(data)%itemSize != 0 {
		return nil, &Error{Kind: KindUnsupportedSize, Op: op}
	}
	return &Page{Key: key, data: data, stride: itemSize}, nil
}
