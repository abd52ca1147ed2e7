// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// protoPackage is the package of the embedded message descriptions.
const protoPackage = "notes"

// Every field is declared optional. The wire format does not distinguish
// required from optional, and real payloads omit fields the description
// of the format marks as required.
var (
	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED

	tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tUint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	tFloat   = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)

func scalarField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  optional.Enum(),
		Type:   typ.Enum(),
	}
}

func messageField(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := scalarField(name, number, tMessage)
	f.TypeName = proto.String("." + protoPackage + "." + typeName)
	return f
}

func repeatedField(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = repeated.Enum()
	return f
}

func withDefault(f *descriptorpb.FieldDescriptorProto, v string) *descriptorpb.FieldDescriptorProto {
	f.DefaultValue = proto.String(v)
	return f
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

// schemaFile describes the note document and mergeable data object formats.
// Field numbers are fixed by the on-disk format.
func schemaFile() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("notestore.proto"),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{
			message("Color",
				scalarField("red", 1, tFloat),
				scalarField("green", 2, tFloat),
				scalarField("blue", 3, tFloat),
				scalarField("alpha", 4, tFloat),
			),
			message("AttachmentInfo",
				scalarField("attachment_identifier", 1, tString),
				scalarField("type_uti", 2, tString),
			),
			message("Font",
				scalarField("font_name", 1, tString),
				scalarField("point_size", 2, tFloat),
				scalarField("font_hints", 3, tInt32),
			),
			message("ParagraphStyle",
				withDefault(scalarField("style_type", 1, tInt32), "-1"),
				scalarField("alignment", 2, tInt32),
				scalarField("indent_amount", 4, tInt32),
				messageField("checklist", 5, "Checklist"),
				scalarField("blockquote", 8, tInt32),
			),
			message("Checklist",
				scalarField("uuid", 1, tBytes),
				scalarField("done", 2, tInt32),
			),
			message("DictionaryElement",
				messageField("key", 1, "ObjectID"),
				messageField("value", 2, "ObjectID"),
			),
			message("Dictionary",
				repeatedField(messageField("element", 1, "DictionaryElement")),
			),
			message("ObjectID",
				scalarField("unsigned_integer_value", 2, tUint64),
				scalarField("string_value", 4, tString),
				scalarField("object_index", 6, tInt32),
			),
			message("RegisterLatest",
				messageField("contents", 2, "ObjectID"),
			),
			message("MapEntry",
				scalarField("key", 1, tInt32),
				messageField("value", 2, "ObjectID"),
			),
			message("AttributeRun",
				scalarField("length", 1, tInt32),
				messageField("paragraph_style", 2, "ParagraphStyle"),
				messageField("font", 3, "Font"),
				scalarField("font_weight", 5, tInt32),
				scalarField("underlined", 6, tInt32),
				scalarField("strikethrough", 7, tInt32),
				scalarField("superscript", 8, tInt32),
				scalarField("link", 9, tString),
				messageField("color", 10, "Color"),
				messageField("attachment_info", 12, "AttachmentInfo"),
			),
			message("NoteStoreProto",
				messageField("document", 2, "Document"),
			),
			message("Document",
				scalarField("version", 2, tInt32),
				messageField("note", 3, "Note"),
			),
			message("Note",
				scalarField("note_text", 2, tString),
				repeatedField(messageField("attribute_run", 5, "AttributeRun")),
			),
			message("MergableDataProto",
				messageField("mergable_data_object", 2, "MergableDataObject"),
			),
			message("MergableDataObject",
				scalarField("version", 2, tInt32),
				messageField("mergeable_data_object_data", 3, "MergeableDataObjectData"),
			),
			message("MergeableDataObjectData",
				repeatedField(messageField("mergeable_data_object_entry", 3, "MergeableDataObjectEntry")),
				repeatedField(scalarField("mergeable_data_object_key_item", 4, tString)),
				repeatedField(scalarField("mergeable_data_object_type_item", 5, tString)),
				repeatedField(scalarField("mergeable_data_object_uuid_item", 6, tBytes)),
			),
			message("MergeableDataObjectEntry",
				messageField("register_latest", 1, "RegisterLatest"),
				messageField("list", 5, "List"),
				messageField("dictionary", 6, "Dictionary"),
				messageField("unknown_message", 9, "UnknownMergeableDataObjectEntryMessage"),
				messageField("note", 10, "Note"),
				messageField("custom_map", 13, "MergeableDataObjectMap"),
				messageField("ordered_set", 16, "OrderedSet"),
			),
			message("UnknownMergeableDataObjectEntryMessage",
				messageField("unknown_entry", 1, "UnknownMergeableDataObjectEntryMessageEntry"),
			),
			message("UnknownMergeableDataObjectEntryMessageEntry",
				scalarField("unknown_int1", 1, tInt32),
				scalarField("unknown_int2", 2, tInt64),
			),
			message("MergeableDataObjectMap",
				scalarField("type", 1, tInt32),
				repeatedField(messageField("map_entry", 3, "MapEntry")),
			),
			message("OrderedSet",
				messageField("ordering", 1, "OrderedSetOrdering"),
				messageField("elements", 2, "Dictionary"),
			),
			message("OrderedSetOrdering",
				messageField("array", 1, "OrderedSetOrderingArray"),
				messageField("contents", 2, "Dictionary"),
			),
			message("OrderedSetOrderingArray",
				messageField("contents", 1, "Note"),
				repeatedField(messageField("attachment", 2, "OrderedSetOrderingArrayAttachment")),
			),
			message("OrderedSetOrderingArrayAttachment",
				scalarField("index", 1, tInt32),
				scalarField("uuid", 2, tBytes),
			),
			message("List",
				repeatedField(messageField("list_entry", 1, "ListEntry")),
			),
			message("ListEntry",
				messageField("id", 2, "ObjectID"),
				messageField("details", 3, "ListEntryDetails"),
				messageField("additional_details", 4, "ListEntryDetails"),
			),
			message("ListEntryDetails",
				messageField("list_entry_details_key", 1, "ListEntryDetailsKey"),
				messageField("id", 2, "ObjectID"),
			),
			message("ListEntryDetailsKey",
				scalarField("list_entry_details_type_index", 1, tInt32),
				scalarField("list_entry_details_key", 2, tInt32),
			),
		},
	}
}

type compiledSchema struct {
	noteStore protoreflect.MessageDescriptor
	mergeable protoreflect.MessageDescriptor
}

// schema is compiled once when the package is loaded and shared read-only by
// every decode.
var schema = mustCompileSchema()

func mustCompileSchema() compiledSchema {
	fd, err := protodesc.NewFile(schemaFile(), new(protoregistry.Files))
	if err != nil {
		panic(fmt.Sprintf("compiling notes schema: %v", err))
	}
	lookup := func(name protoreflect.Name) protoreflect.MessageDescriptor {
		md := fd.Messages().ByName(name)
		if md == nil {
			panic(fmt.Sprintf("notes schema has no message %s", name))
		}
		return md
	}
	return compiledSchema{
		noteStore: lookup("NoteStoreProto"),
		mergeable: lookup("MergableDataProto"),
	}
}
