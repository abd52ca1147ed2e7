// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func gzipBytes(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSchemaCompiled(t *testing.T) {
	assert.Equal(t, "notes.NoteStoreProto", string(schema.noteStore.FullName()))
	assert.Equal(t, "notes.MergableDataProto", string(schema.mergeable.FullName()))
}

// The payload below is assembled field by field so the test pins the wire
// numbers rather than trusting EncodeNote.
func TestDecodeNote_WireFormat(t *testing.T) {
	var style []byte
	style = protowire.AppendTag(style, 1, protowire.VarintType)
	style = protowire.AppendVarint(style, uint64(StyleHeading))
	style = protowire.AppendTag(style, 4, protowire.VarintType)
	style = protowire.AppendVarint(style, 2)

	var run []byte
	run = protowire.AppendTag(run, 1, protowire.VarintType)
	run = protowire.AppendVarint(run, 5)
	run = protowire.AppendTag(run, 2, protowire.BytesType)
	run = protowire.AppendBytes(run, style)
	run = protowire.AppendTag(run, 5, protowire.VarintType)
	run = protowire.AppendVarint(run, uint64(WeightBold))
	run = protowire.AppendTag(run, 9, protowire.BytesType)
	run = protowire.AppendString(run, "https://example.com")

	var note []byte
	note = protowire.AppendTag(note, 2, protowire.BytesType)
	note = protowire.AppendString(note, "Hello")
	note = protowire.AppendTag(note, 5, protowire.BytesType)
	note = protowire.AppendBytes(note, run)

	var doc []byte
	doc = protowire.AppendTag(doc, 2, protowire.VarintType)
	doc = protowire.AppendVarint(doc, 1)
	doc = protowire.AppendTag(doc, 3, protowire.BytesType)
	doc = protowire.AppendBytes(doc, note)

	var store []byte
	store = protowire.AppendTag(store, 2, protowire.BytesType)
	store = protowire.AppendBytes(store, doc)

	got, err := DecodeNote(gzipBytes(t, store))
	require.NoError(t, err)

	assert.Equal(t, int32(1), got.Version)
	assert.Equal(t, "Hello", got.Note.Text)
	require.Len(t, got.Note.Runs, 1)
	r := got.Note.Runs[0]
	assert.Equal(t, int32(5), r.Length)
	assert.Equal(t, WeightBold, r.Weight)
	assert.Equal(t, "https://example.com", r.Link)
	require.NotNil(t, r.Paragraph)
	assert.Equal(t, StyleHeading, r.Style())
	assert.Equal(t, int32(2), r.Indent())
}

func TestDecodeNote_StyleDefaultsToBody(t *testing.T) {
	payload, err := EncodeNote(&Document{Note: Note{
		Text: "x",
		Runs: []AttributeRun{{Length: 1, Paragraph: &ParagraphStyle{Style: StyleBody, Indent: 1}}},
	}})
	require.NoError(t, err)

	got, err := DecodeNote(payload)
	require.NoError(t, err)
	require.Len(t, got.Note.Runs, 1)
	assert.Equal(t, StyleBody, got.Note.Runs[0].Style())
	assert.Equal(t, int32(1), got.Note.Runs[0].Indent())
}

func TestEncodeDecodeNote(t *testing.T) {
	doc := &Document{Version: 1, Note: Note{
		Text: "Title\nBody \ufffc",
		Runs: []AttributeRun{
			{Length: 5, Paragraph: &ParagraphStyle{Style: StyleTitle}},
			{
				Length:        6,
				Weight:        WeightItalic,
				Underlined:    true,
				Strikethrough: true,
				Baseline:      BaselineSuper,
				Font:          &Font{Name: "Menlo", PointSize: 14},
				Color:         &Color{Red: 1, Green: 0.5, Blue: 0, Alpha: 1},
				Paragraph: &ParagraphStyle{
					Style:      StyleCheckbox,
					Alignment:  AlignCenter,
					Blockquote: true,
					Checklist:  &Checklist{UUID: []byte{1, 2, 3}, Done: true},
				},
			},
			{Length: 1, Attachment: &AttachmentInfo{Identifier: "ABC", TypeUTI: "com.apple.notes.table"}},
		},
	}}

	payload, err := EncodeNote(doc)
	require.NoError(t, err)

	got, err := DecodeNote(payload)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDecodeNote_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		stage   string
	}{
		{"not gzip", []byte("plain text"), "gzip"},
		{"truncated gzip", gzipBytes(t, []byte("abc"))[:12], "gzip"},
		{"bad protobuf", gzipBytes(t, []byte{0xff, 0xff, 0xff}), "protobuf"},
		{"missing document", gzipBytes(t, nil), "protobuf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeNote(tt.payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecode)

			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.stage, de.Stage)
		})
	}
}

func TestFromHex(t *testing.T) {
	payload, err := EncodeNote(&Document{Note: Note{Text: "a", Runs: []AttributeRun{{Length: 1}}}})
	require.NoError(t, err)

	raw, err := FromHex(" " + hex.EncodeToString(payload) + "\n")
	require.NoError(t, err)
	got, err := DecodeNote(raw)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Note.Text)

	_, err = FromHex("zz")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestEncodeDecodeMergeable(t *testing.T) {
	data := &MergeableData{
		Version: 1,
		Keys:    []string{"crRows", "crColumns"},
		Types:   []string{"com.apple.notes.ICTable"},
		UUIDs:   [][]byte{bytes.Repeat([]byte{0xab}, 16)},
		Entries: []Entry{
			{CustomMap: &CustomMap{Type: 0, Entries: []MapEntry{
				{Key: 1, Value: ObjectID{Object: 2}},
				{Key: 0, Value: ObjectID{UnsignedInteger: 7}},
			}}},
			{OrderedSet: &OrderedSet{
				Ordering: []OrderingAttachment{{Index: 0, UUID: []byte{1}}, {Index: 1, UUID: []byte{2}}},
				Contents: Dictionary{Elements: []DictionaryElement{
					{Key: ObjectID{Object: 3}, Value: ObjectID{Object: 4}},
				}},
			}},
			{Dictionary: &Dictionary{Elements: []DictionaryElement{{Key: ObjectID{Object: 1}, Value: ObjectID{String: "x"}}}}},
			{Note: &Note{Text: "cell", Runs: []AttributeRun{{Length: 4}}}},
			{RegisterLatest: &ObjectID{String: "ABCD"}},
		},
	}

	payload, err := EncodeMergeable(data)
	require.NoError(t, err)

	got, err := DecodeMergeable(payload)
	require.NoError(t, err)
	assert.Equal(t, data.Version, got.Version)
	assert.Equal(t, data.Keys, got.Keys)
	assert.Equal(t, data.Types, got.Types)
	assert.Equal(t, data.UUIDs, got.UUIDs)
	require.Len(t, got.Entries, len(data.Entries))
	assert.Equal(t, data.Entries[0].CustomMap, got.Entries[0].CustomMap)
	assert.Equal(t, data.Entries[1].OrderedSet.Ordering, got.Entries[1].OrderedSet.Ordering)
	assert.Equal(t, data.Entries[1].OrderedSet.Contents, got.Entries[1].OrderedSet.Contents)
	assert.Equal(t, data.Entries[2].Dictionary, got.Entries[2].Dictionary)
	assert.Equal(t, data.Entries[3].Note, got.Entries[3].Note)
	assert.Equal(t, data.Entries[4].RegisterLatest, got.Entries[4].RegisterLatest)
}

func TestDecodeMergeable_Errors(t *testing.T) {
	_, err := DecodeMergeable([]byte{0x1f, 0x8b, 0x00})
	assert.ErrorIs(t, err, ErrDecode)

	_, err = DecodeMergeable(gzipBytes(t, nil))
	assert.ErrorIs(t, err, ErrDecode)
}
