package streamer

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hupe1980/hepio/internal/hash"
	"github.com/hupe1980/hepio/internal/wire"
)

// Member describes one streamed member of a class.
type Member struct {
	Name string
	Type string
}

// Info is the persisted description of a class layout.
type Info struct {
	Class    string
	Members  []Member
	Checksum uint32
}

func newInfo(t reflect.Type) Info {
	info := Info{Class: t.Name()}
	for _, f := range fieldsOf(t) {
		info.Members = append(info.Members, Member{Name: f.name, Type: TypeName(f.typ)})
	}
	info.Checksum = info.computeChecksum()
	return info
}

func (i Info) computeChecksum() uint32 {
	var sb strings.Builder
	sb.WriteString(i.Class)
	sb.WriteByte('{')
	for _, m := range i.Members {
		sb.WriteString(m.Name)
		sb.WriteByte(':')
		sb.WriteString(m.Type)
		sb.WriteByte(';')
	}
	sb.WriteByte('}')
	return hash.CRC32C([]byte(sb.String()))
}

// String renders the class like a Go struct declaration.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s {", i.Class)
	for j, m := range i.Members {
		if j > 0 {
			sb.WriteString(";")
		}
		fmt.Fprintf(&sb, " %s %s", m.Name, m.Type)
	}
	fmt.Fprintf(&sb, " } [crc32c=%08x]", i.Checksum)
	return sb.String()
}

const (
	fieldInfo = 1

	infoClass    = 1
	infoMember   = 2
	infoChecksum = 3

	memberName = 1
	memberType = 2
)

// EncodeInfos serializes class infos.
func EncodeInfos(infos []Info) []byte {
	e := wire.NewEncoder(64 * len(infos))
	for _, info := range infos {
		e.Message(fieldInfo, func(m *wire.Encoder) {
			m.String(infoClass, info.Class)
			for _, mem := range info.Members {
				m.Message(infoMember, func(mm *wire.Encoder) {
					mm.String(memberName, mem.Name)
					mm.String(memberType, mem.Type)
				})
			}
			m.Uint(infoChecksum, uint64(info.Checksum))
		})
	}
	return e.Bytes()
}

// DecodeInfos parses infos written by EncodeInfos and verifies their checksums.
func DecodeInfos(b []byte) ([]Info, error) {
	var infos []Info
	err := wire.Decode(b, func(num wire.Number, f wire.Field) error {
		if num != fieldInfo {
			return nil
		}
		var info Info
		err := wire.Decode(f.Bytes(), func(num wire.Number, f wire.Field) error {
			switch num {
			case infoClass:
				info.Class = f.String()
			case infoChecksum:
				info.Checksum = uint32(f.Uint())
			case infoMember:
				var mem Member
				err := wire.Decode(f.Bytes(), func(num wire.Number, f wire.Field) error {
					switch num {
					case memberName:
						mem.Name = f.String()
					case memberType:
						mem.Type = f.String()
					}
					return nil
				})
				if err != nil {
					return err
				}
				info.Members = append(info.Members, mem)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if info.computeChecksum() != info.Checksum {
			return fmt.Errorf("%w: checksum of class %q", ErrMalformed, info.Class)
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("streamer: decode infos: %w", err)
	}
	return infos, nil
}
