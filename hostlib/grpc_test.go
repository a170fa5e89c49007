package hostlib

import (
	"testing"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
)

const testProto = `
syntax = "proto3";
package test;

enum Mood {
	CALM = 0;
	ANGRY = 1;
}

message Pet {
	string name = 1;
	int32 legs = 2;
}

message Person {
	string name = 1;
	int32 age = 2;
	double score = 3;
	bool active = 4;
	repeated string tags = 5;
	Pet pet = 6;
	Mood mood = 7;
	int64 visits = 8;
}
`

func personDescriptor(t *testing.T) *desc.MessageDescriptor {
	t.Helper()
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"test.proto": testProto,
		}),
	}
	fds, err := parser.ParseFiles("test.proto")
	if err != nil {
		t.Fatalf("parse proto: %v", err)
	}
	md := fds[0].FindMessage("test.Person")
	if md == nil {
		t.Fatal("test.Person not found")
	}
	return md
}

func TestValueToProto(t *testing.T) {
	newTestScope(t)
	md := personDescriptor(t)

	req := mustRun(t, `({
		name: "grace",
		age: 36,
		score: 99.5,
		active: true,
		tags: ["a", "b"],
		pet: { name: "rex", legs: 4 },
		mood: "ANGRY",
		visits: 12,
		unknownField: "skipped"
	})`)

	msg, err := valueToProto(req, md)
	if err != nil {
		t.Fatalf("valueToProto: %v", err)
	}

	if got := msg.GetFieldByName("name").(string); got != "grace" {
		t.Errorf("name = %q", got)
	}
	if got := msg.GetFieldByName("age").(int32); got != 36 {
		t.Errorf("age = %d", got)
	}
	if got := msg.GetFieldByName("score").(float64); got != 99.5 {
		t.Errorf("score = %v", got)
	}
	if got := msg.GetFieldByName("active").(bool); !got {
		t.Error("active should be true")
	}
	tags := msg.GetFieldByName("tags").([]interface{})
	if len(tags) != 2 || tags[1].(string) != "b" {
		t.Errorf("tags = %v", tags)
	}
	pet := msg.GetFieldByName("pet").(*dynamic.Message)
	if pet.GetFieldByName("legs").(int32) != 4 {
		t.Errorf("pet.legs = %v", pet.GetFieldByName("legs"))
	}
	if got := msg.GetFieldByName("mood").(int32); got != 1 {
		t.Errorf("mood = %d, want 1 (ANGRY)", got)
	}
	if got := msg.GetFieldByName("visits").(int64); got != 12 {
		t.Errorf("visits = %d", got)
	}
}

func TestProtoToValue(t *testing.T) {
	newTestScope(t)
	md := personDescriptor(t)

	msg := dynamic.NewMessage(md)
	msg.SetFieldByName("name", "alan")
	msg.SetFieldByName("age", int32(41))
	msg.SetFieldByName("active", true)
	msg.SetFieldByName("tags", []interface{}{"x", "y", "z"})
	msg.SetFieldByName("mood", int32(1))

	pet := dynamic.NewMessage(md.FindFieldByName("pet").GetMessageType())
	pet.SetFieldByName("name", "tortoise")
	msg.SetFieldByName("pet", pet)

	out, err := protoToValue(msg)
	if err != nil {
		t.Fatalf("protoToValue: %v", err)
	}

	if s, _ := out.Index("name").AsString(); s != "alan" {
		t.Errorf("name = %q", s)
	}
	if n, _ := out.Index("age").AsInt(); n != 41 {
		t.Errorf("age = %d", n)
	}
	if b, _ := out.Index("active").AsBool(); !b {
		t.Error("active should be true")
	}
	tags, err := out.Index("tags").Get()
	if err != nil || !tags.IsArray() {
		t.Fatalf("tags = %v %v", tags, err)
	}
	if n, _ := tags.Index("length").AsInt(); n != 3 {
		t.Errorf("tags length = %d", n)
	}
	if s, _ := out.Index("pet").Index("name").AsString(); s != "tortoise" {
		t.Errorf("pet.name = %q", s)
	}
	// Enums surface by name
	if s, _ := out.Index("mood").AsString(); s != "ANGRY" {
		t.Errorf("mood = %q, want ANGRY", s)
	}
}

func TestValueToProtoRejectsBadField(t *testing.T) {
	newTestScope(t)
	md := personDescriptor(t)

	req := mustRun(t, `({ age: "not a number" })`)
	if _, err := valueToProto(req, md); err == nil {
		t.Error("string into int32 field should fail")
	}

	req = mustRun(t, `({ mood: "CONFUSED" })`)
	if _, err := valueToProto(req, md); err == nil {
		t.Error("unknown enum name should fail")
	}
}

func TestRegisterGrpcShape(t *testing.T) {
	newTestScope(t)

	if err := RegisterGrpc(); err != nil {
		t.Fatalf("RegisterGrpc: %v", err)
	}
	s, _ := mustRun(t, "typeof grpc.connect").AsString()
	if s != "function" {
		t.Errorf("grpc.connect is %s, want function", s)
	}
}
