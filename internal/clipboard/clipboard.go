// Package clipboard provides scoped access to the shared OS clipboard.
//
// The clipboard is the one resource this process shares with every other
// process on the machine, so any write done for a paste-based insertion is
// wrapped in a Transaction that captures the user's payload up front and
// restores it on every exit path. A failed acquisition is a soft failure:
// the transaction proceeds without a save/restore guarantee and the caller
// is expected to degrade to a non-clipboard strategy.
package clipboard

import "errors"

// ErrUnavailable is returned when the clipboard cannot be opened, e.g.
// when another process currently holds it.
var ErrUnavailable = errors.New("clipboard unavailable")

// Accessor is the platform interface for the single global plain-text
// clipboard slot.
type Accessor interface {
	// Get returns the current text payload. An empty clipboard returns
	// ("", nil).
	Get() (string, error)

	// Set replaces the payload with text.
	Set(text string) error

	// Clear empties the clipboard.
	Clear() error
}

// System returns the platform clipboard accessor.
func System() Accessor {
	return newPlatformAccessor()
}

// Transaction is a scoped save/set/restore cycle over an Accessor.
// Restore must run on every exit path of the enclosing operation; callers
// pair Begin with a deferred Restore.
type Transaction struct {
	acc      Accessor
	acquired bool
	saved    string
	hadSaved bool
	restored bool
}

// Begin opens a transaction and attempts to capture the existing payload.
// When the clipboard cannot be read the transaction is still usable but
// Acquired reports false, and Restore will not touch the clipboard.
func Begin(acc Accessor) *Transaction {
	tx := &Transaction{acc: acc}
	prev, err := acc.Get()
	if err != nil {
		return tx
	}
	tx.acquired = true
	tx.saved = prev
	tx.hadSaved = prev != ""
	return tx
}

// Acquired reports whether the pre-transaction payload was captured and
// will be restored. Callers should degrade to a non-clipboard strategy
// when this is false.
func (tx *Transaction) Acquired() bool {
	return tx.acquired
}

// Set replaces the clipboard payload for the duration of the transaction.
func (tx *Transaction) Set(text string) error {
	if tx.restored {
		return errors.New("transaction already restored")
	}
	return tx.acc.Set(text)
}

// Restore writes back the saved payload, or clears the clipboard when
// there was none. Safe to call more than once; only the first call acts.
// When acquisition failed, Restore leaves the clipboard alone: overwriting
// with a stale snapshot would be worse than leaving our paste payload.
func (tx *Transaction) Restore() error {
	if tx.restored {
		return nil
	}
	tx.restored = true
	if !tx.acquired {
		return nil
	}
	if !tx.hadSaved {
		return tx.acc.Clear()
	}
	return tx.acc.Set(tx.saved)
}
