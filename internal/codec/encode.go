// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package codec

import (
	"bytes"
	"compress/gzip"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// EncodeNote produces the compressed payload for doc, in the same format
// DecodeNote reads. It is used to build fixture databases.
func EncodeNote(doc *Document) ([]byte, error) {
	msg := dynamicpb.NewMessage(schema.noteStore)
	d := mutable(msg, "document")
	setInt32(d, "version", doc.Version)
	fromNote(mutable(d, "note"), &doc.Note)
	return compress(msg)
}

// EncodeMergeable produces the compressed payload for data, in the same
// format DecodeMergeable reads.
func EncodeMergeable(data *MergeableData) ([]byte, error) {
	msg := dynamicpb.NewMessage(schema.mergeable)
	obj := mutable(msg, "mergable_data_object")
	setInt32(obj, "version", data.Version)
	d := mutable(obj, "mergeable_data_object_data")
	for i := range data.Entries {
		fromEntry(appendMessage(d, "mergeable_data_object_entry"), &data.Entries[i])
	}
	for _, k := range data.Keys {
		appendScalar(d, "mergeable_data_object_key_item", protoreflect.ValueOfString(k))
	}
	for _, t := range data.Types {
		appendScalar(d, "mergeable_data_object_type_item", protoreflect.ValueOfString(t))
	}
	for _, u := range data.UUIDs {
		appendScalar(d, "mergeable_data_object_uuid_item", protoreflect.ValueOfBytes(u))
	}
	return compress(msg)
}

func compress(msg proto.Message) ([]byte, error) {
	raw, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing payload: %w", err)
	}
	return buf.Bytes(), nil
}

func mutable(m protoreflect.Message, name protoreflect.Name) protoreflect.Message {
	return m.Mutable(field(m, name)).Message()
}

func appendMessage(m protoreflect.Message, name protoreflect.Name) protoreflect.Message {
	l := m.Mutable(field(m, name)).List()
	v := l.NewElement()
	l.Append(v)
	return v.Message()
}

func appendScalar(m protoreflect.Message, name protoreflect.Name, v protoreflect.Value) {
	m.Mutable(field(m, name)).List().Append(v)
}

func setInt32(m protoreflect.Message, name protoreflect.Name, v int32) {
	if v != 0 {
		m.Set(field(m, name), protoreflect.ValueOfInt32(v))
	}
}

func setString(m protoreflect.Message, name protoreflect.Name, v string) {
	if v != "" {
		m.Set(field(m, name), protoreflect.ValueOfString(v))
	}
}

func setFloat(m protoreflect.Message, name protoreflect.Name, v float32) {
	if v != 0 {
		m.Set(field(m, name), protoreflect.ValueOfFloat32(v))
	}
}

func setBool(m protoreflect.Message, name protoreflect.Name, v bool) {
	if v {
		m.Set(field(m, name), protoreflect.ValueOfInt32(1))
	}
}

func fromNote(m protoreflect.Message, n *Note) {
	m.Set(field(m, "note_text"), protoreflect.ValueOfString(n.Text))
	for i := range n.Runs {
		fromRun(appendMessage(m, "attribute_run"), &n.Runs[i])
	}
}

func fromRun(m protoreflect.Message, r *AttributeRun) {
	m.Set(field(m, "length"), protoreflect.ValueOfInt32(r.Length))
	setInt32(m, "font_weight", int32(r.Weight))
	setBool(m, "underlined", r.Underlined)
	setBool(m, "strikethrough", r.Strikethrough)
	setInt32(m, "superscript", int32(r.Baseline))
	setString(m, "link", r.Link)
	if p := r.Paragraph; p != nil {
		ps := mutable(m, "paragraph_style")
		if p.Style != StyleBody {
			ps.Set(field(ps, "style_type"), protoreflect.ValueOfInt32(int32(p.Style)))
		}
		setInt32(ps, "alignment", int32(p.Alignment))
		setInt32(ps, "indent_amount", p.Indent)
		setBool(ps, "blockquote", p.Blockquote)
		if p.Checklist != nil {
			cl := mutable(ps, "checklist")
			cl.Set(field(cl, "uuid"), protoreflect.ValueOfBytes(p.Checklist.UUID))
			setBool(cl, "done", p.Checklist.Done)
		}
	}
	if f := r.Font; f != nil {
		fm := mutable(m, "font")
		setString(fm, "font_name", f.Name)
		setFloat(fm, "point_size", f.PointSize)
		setInt32(fm, "font_hints", f.Hints)
	}
	if c := r.Color; c != nil {
		cm := mutable(m, "color")
		setFloat(cm, "red", c.Red)
		setFloat(cm, "green", c.Green)
		setFloat(cm, "blue", c.Blue)
		setFloat(cm, "alpha", c.Alpha)
	}
	if a := r.Attachment; a != nil {
		am := mutable(m, "attachment_info")
		setString(am, "attachment_identifier", a.Identifier)
		setString(am, "type_uti", a.TypeUTI)
	}
}

func fromObjectID(m protoreflect.Message, o ObjectID) {
	if o.UnsignedInteger != 0 {
		m.Set(field(m, "unsigned_integer_value"), protoreflect.ValueOfUint64(o.UnsignedInteger))
	}
	setString(m, "string_value", o.String)
	setInt32(m, "object_index", int32(o.Object))
}

func fromDictionary(m protoreflect.Message, d *Dictionary) {
	for _, el := range d.Elements {
		e := appendMessage(m, "element")
		fromObjectID(mutable(e, "key"), el.Key)
		fromObjectID(mutable(e, "value"), el.Value)
	}
}

func fromEntry(m protoreflect.Message, e *Entry) {
	if e.RegisterLatest != nil {
		fromObjectID(mutable(mutable(m, "register_latest"), "contents"), *e.RegisterLatest)
	}
	if e.Dictionary != nil {
		fromDictionary(mutable(m, "dictionary"), e.Dictionary)
	}
	if e.Note != nil {
		fromNote(mutable(m, "note"), e.Note)
	}
	if c := e.CustomMap; c != nil {
		cm := mutable(m, "custom_map")
		cm.Set(field(cm, "type"), protoreflect.ValueOfInt32(int32(c.Type)))
		for _, entry := range c.Entries {
			me := appendMessage(cm, "map_entry")
			me.Set(field(me, "key"), protoreflect.ValueOfInt32(int32(entry.Key)))
			fromObjectID(mutable(me, "value"), entry.Value)
		}
	}
	if s := e.OrderedSet; s != nil {
		om := mutable(m, "ordered_set")
		ordering := mutable(om, "ordering")
		arr := mutable(ordering, "array")
		for _, a := range s.Ordering {
			am := appendMessage(arr, "attachment")
			setInt32(am, "index", a.Index)
			am.Set(field(am, "uuid"), protoreflect.ValueOfBytes(a.UUID))
		}
		fromDictionary(mutable(ordering, "contents"), &s.Contents)
		fromDictionary(mutable(om, "elements"), &s.Elements)
	}
}
