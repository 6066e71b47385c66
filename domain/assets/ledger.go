package assets

import (
	"bytes"
	"sort"
)

// Entry is the balance of one account in one asset. Free is spendable,
// Reserved is locked behind resting orders until matched, refunded or
// cancelled.
type Entry struct {
	Free     Balance
	Reserved Balance
}

func (e Entry) IsZero() bool { return e.Free == 0 && e.Reserved == 0 }

type balanceKey struct {
	Account AccountID
	Asset   Asset
}

// AccountBalance is one ledger row in canonical iteration order.
type AccountBalance struct {
	Account AccountID
	Asset   Asset
	Entry   Entry
}

// Ledger tracks free and reserved balances per (account, asset). Zero
// entries are pruned so an untouched account and a drained one encode
// identically.
//
// Every mutating method validates fully before touching state: a
// returned error guarantees the ledger is unchanged.
type Ledger struct {
	entries map[balanceKey]Entry
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[balanceKey]Entry)}
}

func (l *Ledger) Get(account AccountID, asset Asset) Entry {
	return l.entries[balanceKey{account, asset}]
}

func (l *Ledger) set(k balanceKey, e Entry) {
	if e.IsZero() {
		delete(l.entries, k)
		return
	}
	l.entries[k] = e
}

// CanHold reports whether the account could be credited amount more of
// asset without overflowing free+reserved.
func (l *Ledger) CanHold(account AccountID, asset Asset, amount Balance) bool {
	e := l.Get(account, asset)
	total, ok := AddBalance(e.Free, e.Reserved)
	if !ok {
		return false
	}
	_, ok = AddBalance(total, amount)
	return ok
}

// Mint credits amount to the account's free balance.
func (l *Ledger) Mint(account AccountID, asset Asset, amount Balance) error {
	if !l.CanHold(account, asset, amount) {
		return ErrOverflow
	}
	k := balanceKey{account, asset}
	e := l.entries[k]
	e.Free += amount
	l.set(k, e)
	return nil
}

// Slash debits amount from the account's free balance.
func (l *Ledger) Slash(account AccountID, asset Asset, amount Balance) error {
	k := balanceKey{account, asset}
	e := l.entries[k]
	free, ok := SubBalance(e.Free, amount)
	if !ok {
		return ErrInsufficientFree
	}
	e.Free = free
	l.set(k, e)
	return nil
}

// Reserve moves amount from free to reserved.
func (l *Ledger) Reserve(account AccountID, asset Asset, amount Balance) error {
	k := balanceKey{account, asset}
	e := l.entries[k]
	free, ok := SubBalance(e.Free, amount)
	if !ok {
		return ErrInsufficientFree
	}
	e.Free = free
	e.Reserved += amount
	l.set(k, e)
	return nil
}

// Release moves amount from reserved back to free.
func (l *Ledger) Release(account AccountID, asset Asset, amount Balance) error {
	k := balanceKey{account, asset}
	e := l.entries[k]
	reserved, ok := SubBalance(e.Reserved, amount)
	if !ok {
		return ErrInsufficientReserved
	}
	e.Reserved = reserved
	e.Free += amount
	l.set(k, e)
	return nil
}

// SettleReserved pays amount out of from's reserved balance into to's
// free balance. This is the trade settlement primitive; the caller must
// have verified to can hold the credit.
func (l *Ledger) SettleReserved(from, to AccountID, asset Asset, amount Balance) error {
	if from == to {
		return l.Release(from, asset, amount)
	}
	fk := balanceKey{from, asset}
	fe := l.entries[fk]
	reserved, ok := SubBalance(fe.Reserved, amount)
	if !ok {
		return ErrInsufficientReserved
	}
	if !l.CanHold(to, asset, amount) {
		return ErrOverflow
	}
	fe.Reserved = reserved
	l.set(fk, fe)
	tk := balanceKey{to, asset}
	te := l.entries[tk]
	te.Free += amount
	l.set(tk, te)
	return nil
}

// Transfer moves amount between free balances.
func (l *Ledger) Transfer(from, to AccountID, asset Asset, amount Balance) error {
	if from == to {
		if _, ok := SubBalance(l.Get(from, asset).Free, amount); !ok {
			return ErrInsufficientFree
		}
		return nil
	}
	fk := balanceKey{from, asset}
	fe := l.entries[fk]
	free, ok := SubBalance(fe.Free, amount)
	if !ok {
		return ErrInsufficientFree
	}
	if !l.CanHold(to, asset, amount) {
		return ErrOverflow
	}
	fe.Free = free
	l.set(fk, fe)
	tk := balanceKey{to, asset}
	te := l.entries[tk]
	te.Free += amount
	l.set(tk, te)
	return nil
}

// Restore reinstates one row directly, used when rebuilding state from
// an encoded snapshot.
func (l *Ledger) Restore(account AccountID, asset Asset, e Entry) {
	l.set(balanceKey{account, asset}, e)
}

// Entries returns all non-zero rows sorted by account then asset, the
// order used for storage encoding.
func (l *Ledger) Entries() []AccountBalance {
	out := make([]AccountBalance, 0, len(l.entries))
	for k, e := range l.entries {
		out = append(out, AccountBalance{Account: k.Account, Asset: k.Asset, Entry: e})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := bytes.Compare(out[i].Account[:], out[j].Account[:]); c != 0 {
			return c < 0
		}
		return out[i].Asset.Less(out[j].Asset)
	})
	return out
}

// TotalIssuance sums free+reserved across all accounts for one asset.
// Conservation checks in tests lean on this.
func (l *Ledger) TotalIssuance(asset Asset) Balance {
	var total Balance
	for k, e := range l.entries {
		if k.Asset == asset {
			total += e.Free + e.Reserved
		}
	}
	return total
}
