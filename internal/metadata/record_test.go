package metadata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapmeta/internal/model"
)

func TestExif_FieldsFollowTableOrder(t *testing.T) {
	rec := NewExif(
		Field{Key: KeyGPSLatitude, Value: Seq(1, 2, 3)},
		Field{Key: KeyOrientation, Value: Num(6)},
		Field{Key: KeyMake, Value: Str("TestCam")},
		Field{Key: "Bogus", Value: Str("x")},
		Field{Key: KeyModel, Value: Value{}},
	)

	keys := make([]string, 0)
	for _, f := range rec.Fields() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{KeyMake, KeyOrientation, KeyGPSLatitude}, keys)
	assert.False(t, rec.Get("Bogus").IsDefined())
}

func TestExif_CoordinatesRequireRefs(t *testing.T) {
	rec := NewExif(
		Field{Key: KeyGPSLatitude, Value: Seq(10, 30, 0)},
		Field{Key: KeyGPSLongitude, Value: Seq(20, 0, 0)},
	)
	_, _, ok := rec.Coordinates()
	assert.False(t, ok)

	rec = NewExif(
		Field{Key: KeyGPSLatitude, Value: Seq(10, 30, 0)},
		Field{Key: KeyGPSLatitudeRef, Value: Str("S")},
		Field{Key: KeyGPSLongitude, Value: Seq(20, 0, 0)},
		Field{Key: KeyGPSLongitudeRef, Value: Str("E")},
	)
	lat, lon, ok := rec.Coordinates()
	require.True(t, ok)
	assert.Equal(t, -10.5, lat)
	assert.Equal(t, 20.0, lon)
}

func TestRecord_DisplayJSON(t *testing.T) {
	exif := NewExif(
		Field{Key: KeyOrientation, Value: Num(1)},
		Field{Key: KeyMake, Value: Str("TestCam")},
		Field{Key: KeyGPSLatitude, Value: Seq(37, 46, 29.64)},
	)
	data, err := json.Marshal(exif)
	require.NoError(t, err)
	assert.Equal(t, `{"Make":"TestCam","Orientation":1,"GPSLatitude":[37,46,29.64]}`, string(data))

	prov := NewProvenance(model.OriginCamera, time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC))
	data, err = json.Marshal(prov)
	require.NoError(t, err)
	assert.Equal(t, `{"source":"Camera","timestamp":"2026-01-02T03:04:05.006Z"}`, string(data))
}

func TestCodec_RoundTrip(t *testing.T) {
	records := []Record{
		NewExif(
			Field{Key: KeyMake, Value: Str("TestCam")},
			Field{Key: KeyExposureTime, Value: Num(0.008)},
			Field{Key: KeyGPSTimeStamp, Value: Seq(12, 30, 5)},
		),
		NewExif(),
		NewProvenance(model.OriginFileUpload, time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)),
	}

	for _, rec := range records {
		data, err := Encode(rec)
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, rec.Kind(), got.Kind())
		assert.Equal(t, len(rec.Fields()), len(got.Fields()))
		for _, f := range rec.Fields() {
			assert.True(t, f.Value.Equal(got.Get(f.Key)), f.Key)
		}
	}
}

func TestCodec_DecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"kind":"thumbnail","fields":{}}`))
	assert.ErrorContains(t, err, "unknown metadata kind")

	_, err = Decode([]byte(`{"kind":"provenance","fields":{"source":"Camera"}}`))
	assert.ErrorContains(t, err, "timestamp")

	_, err = Decode([]byte(`{"kind":"exif","fields":{"Make":{"nested":true}}}`))
	assert.Error(t, err)

	rec, err := Decode([]byte(`{"kind":"exif","fields":{"Make":"A","Future":"B","Model":null}}`))
	require.NoError(t, err)
	assert.Len(t, rec.Fields(), 1)

	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestToMap(t *testing.T) {
	m := ToMap(NewExif(
		Field{Key: KeyMake, Value: Str("TestCam")},
		Field{Key: KeyGPSLatitude, Value: Seq(1, 2, 3)},
	))
	assert.Equal(t, map[string]any{"Make": "TestCam", "GPSLatitude": []float64{1, 2, 3}}, m)
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "TestCam", Str("TestCam").String())
	assert.Equal(t, "0.008", Num(0.008).String())
	assert.Equal(t, "37, 46, 29.64", Seq(37, 46, 29.64).String())
	assert.Equal(t, "", Value{}.String())
	assert.Equal(t, "undefined", Value{}.Kind().String())
}

func TestLookupTag(t *testing.T) {
	tag, ok := LookupTag(KeyGPSLatitude)
	require.True(t, ok)
	assert.Equal(t, uint16(0x0002), tag.ID)
	assert.Equal(t, GPSIFD, tag.IFD)

	_, ok = LookupTag("Nope")
	assert.False(t, ok)

	seen := make(map[string]bool)
	for _, tag := range Tags {
		assert.False(t, seen[tag.Key], "duplicate key %s", tag.Key)
		seen[tag.Key] = true
	}
}
