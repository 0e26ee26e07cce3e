package rio

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/hepio/internal/wire"
)

// Key describes a named object in the directory.
type Key struct {
	Name   string
	Title  string
	Class  string
	Cycle  int
	Offset int64
	ObjLen uint32
	Datime time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("%s;%d", k.Name, k.Cycle)
}

// ParseName splits "name;cycle" into its parts. A missing cycle is 0,
// meaning the highest cycle.
func ParseName(s string) (string, int, error) {
	name, cycle, ok := strings.Cut(s, ";")
	if !ok {
		return s, 0, nil
	}
	c, err := strconv.Atoi(cycle)
	if err != nil || c < 1 {
		return "", 0, fmt.Errorf("rio: invalid cycle in %q", s)
	}
	return name, c, nil
}

const (
	fieldKey = 1

	keyName   = 1
	keyTitle  = 2
	keyClass  = 3
	keyCycle  = 4
	keyOffset = 5
	keyObjLen = 6
	keyDatime = 7
)

func encodeDirectory(keys []Key) []byte {
	e := wire.NewEncoder(64 * len(keys))
	for _, k := range keys {
		e.Message(fieldKey, func(m *wire.Encoder) {
			m.String(keyName, k.Name)
			m.String(keyTitle, k.Title)
			m.String(keyClass, k.Class)
			m.Uint(keyCycle, uint64(k.Cycle))
			m.Uint(keyOffset, uint64(k.Offset))
			m.Uint(keyObjLen, uint64(k.ObjLen))
			m.Int(keyDatime, k.Datime.Unix())
		})
	}
	return e.Bytes()
}

func decodeDirectory(b []byte) ([]Key, error) {
	var keys []Key
	err := wire.Decode(b, func(num wire.Number, f wire.Field) error {
		if num != fieldKey {
			return nil
		}
		var k Key
		err := wire.Decode(f.Bytes(), func(num wire.Number, f wire.Field) error {
			switch num {
			case keyName:
				k.Name = f.String()
			case keyTitle:
				k.Title = f.String()
			case keyClass:
				k.Class = f.String()
			case keyCycle:
				k.Cycle = int(f.Uint())
			case keyOffset:
				k.Offset = int64(f.Uint())
			case keyObjLen:
				k.ObjLen = uint32(f.Uint())
			case keyDatime:
				k.Datime = time.Unix(f.Int(), 0)
			}
			return nil
		})
		if err != nil {
			return err
		}
		keys = append(keys, k)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: directory: %v", ErrCorrupt, err)
	}
	return keys, nil
}

// lookup returns the key with the given name and cycle (0 = highest).
func lookup(keys []Key, name string, cycle int) (Key, bool) {
	var (
		best  Key
		found bool
	)
	for _, k := range keys {
		if k.Name != name {
			continue
		}
		if cycle != 0 {
			if k.Cycle == cycle {
				return k, true
			}
			continue
		}
		if !found || k.Cycle > best.Cycle {
			best, found = k, true
		}
	}
	return best, found
}
