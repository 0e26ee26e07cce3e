package streamer_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/hepio/streamer"
)

type vec4 struct {
	X, Y, Z, T float64
}

type track struct {
	ID  int32 `hep:"id"`
	Mom vec4  `hep:"p4"`

	Hits  []uint16
	Label string
}

type collision struct {
	Run    int64   `hep:"run"`
	Tracks []track `hep:"tracks"`
	Weight float32 `hep:"w"`
	Tags   [2]bool `hep:"tags"`
	Skip   string  `hep:"-"`
	Raw    []byte  `hep:"raw"`
}

func sampleCollision() collision {
	return collision{
		Run: 42,
		Tracks: []track{
			{ID: 1, Mom: vec4{1, 2, 3, 4}, Hits: []uint16{7, 8}, Label: "mu"},
			{ID: -2, Mom: vec4{-1, 0, 0.5, 9}, Label: "e"},
		},
		Weight: 0.25,
		Tags:   [2]bool{true, false},
		Raw:    []byte{0xde, 0xad},
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	in := sampleCollision()
	in.Skip = "ignored"

	b, err := streamer.Marshal(&in)
	require.NoError(t, err)

	var out collision
	require.NoError(t, streamer.Unmarshal(b, &out))

	in.Skip = ""
	assert.Equal(t, in, out)
}

func TestUnmarshalErrors(t *testing.T) {
	b, err := streamer.Marshal(sampleCollision())
	require.NoError(t, err)

	var out collision
	assert.ErrorIs(t, streamer.Unmarshal(b[:len(b)-1], &out), streamer.ErrMalformed)
	assert.ErrorIs(t, streamer.Unmarshal(append(b, 0), &out), streamer.ErrMalformed)
	assert.ErrorIs(t, streamer.Unmarshal(b, out), streamer.ErrUnsupportedType)

	// A huge length prefix must not allocate.
	var s []float64
	assert.ErrorIs(t, streamer.Unmarshal([]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, &s), streamer.ErrMalformed)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, streamer.Validate(reflect.TypeFor[collision]()))
	assert.ErrorIs(t, streamer.Validate(reflect.TypeFor[map[string]int]()), streamer.ErrUnsupportedType)
	assert.ErrorIs(t, streamer.Validate(reflect.TypeFor[struct{ A int }]()), streamer.ErrUnsupportedType)

	type withChan struct{ C chan int }
	assert.ErrorIs(t, streamer.Validate(reflect.TypeFor[withChan]()), streamer.ErrUnsupportedType)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "int32", streamer.TypeName(reflect.TypeFor[int32]()))
	assert.Equal(t, "[]track", streamer.TypeName(reflect.TypeFor[[]track]()))
	assert.Equal(t, "[3]float64", streamer.TypeName(reflect.TypeFor[[3]float64]()))
}

func TestRegistry(t *testing.T) {
	r := streamer.NewRegistry()

	c, err := streamer.Register[collision](r)
	require.NoError(t, err)
	assert.Equal(t, "collision", c.Name)
	assert.Equal(t, []string{"collision", "track", "vec4"}, r.Classes())

	again, err := r.Register(&collision{})
	require.NoError(t, err)
	assert.Same(t, c, again)

	closure := c.Closure()
	require.Len(t, closure, 3)
	assert.Equal(t, "collision", closure[0].Class)
	assert.Equal(t, []streamer.Member{
		{Name: "run", Type: "int64"},
		{Name: "tracks", Type: "[]track"},
		{Name: "w", Type: "float32"},
		{Name: "tags", Type: "[2]bool"},
		{Name: "raw", Type: "[]uint8"},
	}, closure[0].Members)

	got, ok := r.Lookup("track")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[track](), got.Type)

	_, err = r.Require(reflect.TypeFor[*vec4]())
	assert.NoError(t, err)
	_, err = streamer.NewRegistry().Require(reflect.TypeFor[vec4]())
	assert.ErrorIs(t, err, streamer.ErrMissingDictionary)

	_, err = r.Register(42)
	assert.ErrorIs(t, err, streamer.ErrUnsupportedType)
}

func TestRegistry_NameClash(t *testing.T) {
	r := streamer.NewRegistry()
	_, err := streamer.Register[vec4](r)
	require.NoError(t, err)

	{
		type vec4 struct{ A, B float32 }
		_, err = streamer.Register[vec4](r)
		assert.ErrorIs(t, err, streamer.ErrTypeMismatch)
	}
}

func TestInfos(t *testing.T) {
	r := streamer.NewRegistry()
	c, err := streamer.Register[collision](r)
	require.NoError(t, err)

	infos, err := streamer.DecodeInfos(streamer.EncodeInfos(c.Closure()))
	require.NoError(t, err)
	assert.Equal(t, c.Closure(), infos)

	stored := map[string]streamer.Info{}
	for _, info := range infos {
		stored[info.Class] = info
	}
	assert.NoError(t, c.Verify(stored))

	changed := stored["vec4"]
	changed.Checksum++
	stored["vec4"] = changed
	assert.ErrorIs(t, c.Verify(stored), streamer.ErrTypeMismatch)

	delete(stored, "vec4")
	assert.ErrorIs(t, c.Verify(stored), streamer.ErrTypeMismatch)
}

func TestDecodeInfos_Corrupt(t *testing.T) {
	info := streamer.Info{Class: "x", Members: []streamer.Member{{Name: "a", Type: "int32"}}, Checksum: 1}
	_, err := streamer.DecodeInfos(streamer.EncodeInfos([]streamer.Info{info}))
	assert.ErrorIs(t, err, streamer.ErrMalformed)
}

func leafNames(leaves []streamer.Leaf) []string {
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = l.Name
	}
	return names
}

func TestSplit(t *testing.T) {
	typ := reflect.TypeFor[collision]()

	leaves := streamer.Split(typ, 99)
	assert.Equal(t, []string{
		"run",
		"tracks_",
		"tracks.id",
		"tracks.p4.X", "tracks.p4.Y", "tracks.p4.Z", "tracks.p4.T",
		"tracks.Hits",
		"tracks.Label",
		"w",
		"tags",
		"raw",
	}, leafNames(leaves))
	assert.Equal(t, streamer.LeafCounter, leaves[1].Kind)
	assert.Equal(t, "int32", leaves[1].Type)
	assert.Equal(t, streamer.LeafElement, leaves[3].Kind)
	assert.Equal(t, "tracks_", leaves[3].Counter)

	shallow := streamer.Split(typ, 1)
	assert.Equal(t, []string{"run", "tracks", "w", "tags", "raw"}, leafNames(shallow))

	two := streamer.Split(typ, 2)
	assert.Equal(t, []string{"run", "tracks_", "tracks.id", "tracks.p4", "tracks.Hits", "tracks.Label", "w", "tags", "raw"}, leafNames(two))

	whole := streamer.Split(typ, 0)
	require.Len(t, whole, 1)
	assert.Equal(t, "", whole[0].Name)
	assert.Equal(t, "collision", whole[0].Type)

	scalar := streamer.Split(reflect.TypeFor[float64](), 99)
	require.Len(t, scalar, 1)
	assert.Equal(t, "float64", scalar[0].Type)

	assert.True(t, streamer.SameLayout(leaves, streamer.Split(typ, 99)))
	assert.False(t, streamer.SameLayout(leaves, two))
}

func TestLeafRoundTrip(t *testing.T) {
	for _, level := range []int{0, 1, 2, 99} {
		in := sampleCollision()
		leaves := streamer.Split(reflect.TypeFor[collision](), level)

		cols := make([][]byte, len(leaves))
		for i := range leaves {
			cols[i] = leaves[i].Append(nil, reflect.ValueOf(in))
		}

		out := collision{Tracks: []track{{ID: 100}}}
		root := reflect.ValueOf(&out).Elem()
		for i := range leaves {
			require.NoError(t, leaves[i].Decode(cols[i], root), "level %d leaf %q", level, leaves[i].Name)
		}
		assert.Equal(t, in, out, "level %d", level)
	}
}

func TestLeafDecodeErrors(t *testing.T) {
	leaves := streamer.Split(reflect.TypeFor[collision](), 99)
	var out collision
	root := reflect.ValueOf(&out).Elem()

	assert.ErrorIs(t, leaves[0].Decode([]byte{1, 2}, root), streamer.ErrMalformed)
	assert.ErrorIs(t, leaves[1].Decode([]byte{1, 0}, root), streamer.ErrMalformed)
	assert.ErrorIs(t, leaves[1].Decode([]byte{0xff, 0xff, 0xff, 0xff}, root), streamer.ErrMalformed)

	require.NoError(t, leaves[1].Decode([]byte{1, 0, 0, 0}, root))
	assert.Len(t, out.Tracks, 1)
	assert.ErrorIs(t, leaves[2].Decode([]byte{1, 0, 0, 0, 9}, root), streamer.ErrMalformed)
}

func TestLeafKindString(t *testing.T) {
	assert.Equal(t, "counter", streamer.LeafCounter.String())
	assert.Equal(t, "LeafKind(9)", streamer.LeafKind(9).String())
}
