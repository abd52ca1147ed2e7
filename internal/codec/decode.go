// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package codec decodes the compressed protocol buffer payloads the Notes
// database stores for note bodies and embedded objects (tables, scan
// galleries). The message descriptions are compiled once into a
// protoreflect schema; payloads are parsed with dynamicpb and copied into
// plain Go structs.
package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// ErrDecode matches every DecodeError.
var ErrDecode = errors.New("decode failed")

// maxPayload bounds the decompressed size of a single payload.
const maxPayload = 64 << 20

// DecodeError reports a payload that could not be decompressed or parsed.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding payload (%s): %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Decompress gunzips payload.
func Decompress(payload []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, &DecodeError{Stage: "gzip", Err: err}
	}
	defer zr.Close()

	data, err := io.ReadAll(io.LimitReader(zr, maxPayload+1))
	if err != nil {
		return nil, &DecodeError{Stage: "gzip", Err: err}
	}
	if len(data) > maxPayload {
		return nil, &DecodeError{Stage: "gzip", Err: fmt.Errorf("payload exceeds %d bytes", maxPayload)}
	}
	return data, nil
}

// FromHex converts a hex() column value into raw bytes.
func FromHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, &DecodeError{Stage: "hex", Err: err}
	}
	return b, nil
}

func unmarshal(payload []byte, md protoreflect.MessageDescriptor) (protoreflect.Message, error) {
	raw, err := Decompress(payload)
	if err != nil {
		return nil, err
	}
	msg := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(raw, msg); err != nil {
		return nil, &DecodeError{Stage: "protobuf", Err: err}
	}
	return msg, nil
}

// DecodeNote decodes a note body payload.
func DecodeNote(payload []byte) (*Document, error) {
	msg, err := unmarshal(payload, schema.noteStore)
	if err != nil {
		return nil, err
	}
	doc, ok := child(msg, "document")
	if !ok {
		return nil, &DecodeError{Stage: "protobuf", Err: errors.New("missing document")}
	}
	out := &Document{Version: int32(get(doc, "version").Int())}
	if n, ok := child(doc, "note"); ok {
		out.Note = toNote(n)
	}
	return out, nil
}

// DecodeMergeable decodes an embedded object payload (table, scan gallery).
func DecodeMergeable(payload []byte) (*MergeableData, error) {
	msg, err := unmarshal(payload, schema.mergeable)
	if err != nil {
		return nil, err
	}
	obj, ok := child(msg, "mergable_data_object")
	if !ok {
		return nil, &DecodeError{Stage: "protobuf", Err: errors.New("missing mergeable data object")}
	}
	out := &MergeableData{Version: int32(get(obj, "version").Int())}
	data, ok := child(obj, "mergeable_data_object_data")
	if !ok {
		return out, nil
	}
	each(data, "mergeable_data_object_entry", func(v protoreflect.Value) {
		out.Entries = append(out.Entries, toEntry(v.Message()))
	})
	each(data, "mergeable_data_object_key_item", func(v protoreflect.Value) {
		out.Keys = append(out.Keys, v.String())
	})
	each(data, "mergeable_data_object_type_item", func(v protoreflect.Value) {
		out.Types = append(out.Types, v.String())
	})
	each(data, "mergeable_data_object_uuid_item", func(v protoreflect.Value) {
		out.UUIDs = append(out.UUIDs, bytes.Clone(v.Bytes()))
	})
	return out, nil
}

// field panics on unknown names: the schema is fixed, so a miss is a bug here.
func field(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("notes schema: %s has no field %s", m.Descriptor().FullName(), name))
	}
	return fd
}

func get(m protoreflect.Message, name protoreflect.Name) protoreflect.Value {
	return m.Get(field(m, name))
}

func has(m protoreflect.Message, name protoreflect.Name) bool {
	return m.Has(field(m, name))
}

func child(m protoreflect.Message, name protoreflect.Name) (protoreflect.Message, bool) {
	fd := field(m, name)
	if !m.Has(fd) {
		return nil, false
	}
	return m.Get(fd).Message(), true
}

func each(m protoreflect.Message, name protoreflect.Name, fn func(protoreflect.Value)) {
	l := get(m, name).List()
	for i := 0; i < l.Len(); i++ {
		fn(l.Get(i))
	}
}

func toNote(m protoreflect.Message) Note {
	n := Note{Text: get(m, "note_text").String()}
	each(m, "attribute_run", func(v protoreflect.Value) {
		n.Runs = append(n.Runs, toRun(v.Message()))
	})
	return n
}

func toRun(m protoreflect.Message) AttributeRun {
	r := AttributeRun{
		Length:        int32(get(m, "length").Int()),
		Weight:        FontWeight(get(m, "font_weight").Int()),
		Underlined:    get(m, "underlined").Int() != 0,
		Strikethrough: get(m, "strikethrough").Int() != 0,
		Baseline:      Baseline(get(m, "superscript").Int()),
		Link:          get(m, "link").String(),
	}
	if ps, ok := child(m, "paragraph_style"); ok {
		p := &ParagraphStyle{
			Style:      StyleType(get(ps, "style_type").Int()),
			Alignment:  Alignment(get(ps, "alignment").Int()),
			Indent:     int32(get(ps, "indent_amount").Int()),
			Blockquote: get(ps, "blockquote").Int() != 0,
		}
		if cl, ok := child(ps, "checklist"); ok {
			p.Checklist = &Checklist{
				UUID: bytes.Clone(get(cl, "uuid").Bytes()),
				Done: get(cl, "done").Int() != 0,
			}
		}
		r.Paragraph = p
	}
	if f, ok := child(m, "font"); ok {
		r.Font = &Font{
			Name:      get(f, "font_name").String(),
			PointSize: float32(get(f, "point_size").Float()),
			Hints:     int32(get(f, "font_hints").Int()),
		}
	}
	if c, ok := child(m, "color"); ok {
		r.Color = &Color{
			Red:   float32(get(c, "red").Float()),
			Green: float32(get(c, "green").Float()),
			Blue:  float32(get(c, "blue").Float()),
			Alpha: float32(get(c, "alpha").Float()),
		}
	}
	if a, ok := child(m, "attachment_info"); ok {
		r.Attachment = &AttachmentInfo{
			Identifier: get(a, "attachment_identifier").String(),
			TypeUTI:    get(a, "type_uti").String(),
		}
	}
	return r
}

func toObjectID(m protoreflect.Message) ObjectID {
	return ObjectID{
		UnsignedInteger: get(m, "unsigned_integer_value").Uint(),
		String:          get(m, "string_value").String(),
		Object:          ObjectIndex(get(m, "object_index").Int()),
	}
}

func toDictionary(m protoreflect.Message) Dictionary {
	var d Dictionary
	each(m, "element", func(v protoreflect.Value) {
		e := v.Message()
		var el DictionaryElement
		if k, ok := child(e, "key"); ok {
			el.Key = toObjectID(k)
		}
		if val, ok := child(e, "value"); ok {
			el.Value = toObjectID(val)
		}
		d.Elements = append(d.Elements, el)
	})
	return d
}

func toEntry(m protoreflect.Message) Entry {
	var e Entry
	if rl, ok := child(m, "register_latest"); ok && has(rl, "contents") {
		id := toObjectID(get(rl, "contents").Message())
		e.RegisterLatest = &id
	}
	if d, ok := child(m, "dictionary"); ok {
		dict := toDictionary(d)
		e.Dictionary = &dict
	}
	if n, ok := child(m, "note"); ok {
		note := toNote(n)
		e.Note = &note
	}
	if cm, ok := child(m, "custom_map"); ok {
		c := &CustomMap{Type: TypeIndex(get(cm, "type").Int())}
		each(cm, "map_entry", func(v protoreflect.Value) {
			me := v.Message()
			entry := MapEntry{Key: KeyIndex(get(me, "key").Int())}
			if val, ok := child(me, "value"); ok {
				entry.Value = toObjectID(val)
			}
			c.Entries = append(c.Entries, entry)
		})
		e.CustomMap = c
	}
	if om, ok := child(m, "ordered_set"); ok {
		set := &OrderedSet{}
		if ordering, ok := child(om, "ordering"); ok {
			if arr, ok := child(ordering, "array"); ok {
				each(arr, "attachment", func(v protoreflect.Value) {
					a := v.Message()
					set.Ordering = append(set.Ordering, OrderingAttachment{
						Index: int32(get(a, "index").Int()),
						UUID:  bytes.Clone(get(a, "uuid").Bytes()),
					})
				})
			}
			if contents, ok := child(ordering, "contents"); ok {
				set.Contents = toDictionary(contents)
			}
		}
		if elements, ok := child(om, "elements"); ok {
			set.Elements = toDictionary(elements)
		}
		e.OrderedSet = set
	}
	return e
}
