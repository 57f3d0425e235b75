//go:build linux

package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// evdev key codes from linux/input-event-codes.h
var mediaKeyCodes = map[MediaKey]int{
	KeyPlayPause: 164,
	KeyNext:      163,
	KeyPrevious:  165,
}

// uinputKeys presses media keys through a virtual uinput keyboard.
type uinputKeys struct {
	once sync.Once
	mu   sync.Mutex
	kb   keybd_event.KeyBonding
	err  error
}

func NewMediaKeys() MediaKeys {
	return &uinputKeys{}
}

func (u *uinputKeys) init() {
	u.kb, u.err = keybd_event.NewKeyBonding()
	// udev needs time to register the new device before the first event.
	time.Sleep(2 * time.Second)
}

func (u *uinputKeys) Press(ctx context.Context, key MediaKey) error {
	code, ok := mediaKeyCodes[key]
	if !ok {
		return fmt.Errorf("unknown media key %d", key)
	}

	u.once.Do(u.init)
	if u.err != nil {
		return fmt.Errorf("uinput keyboard: %w", u.err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.kb.Clear()
	u.kb.SetKeys(code)
	return u.kb.Launching()
}
