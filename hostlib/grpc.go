package hostlib

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/jhump/protoreflect/dynamic/grpcdynamic"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	rpb "google.golang.org/grpc/reflection/grpc_reflection_v1alpha"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/chazu/jsbridge/js"
)

// ---------------------------------------------------------------------------
// Client registry
// ---------------------------------------------------------------------------

// grpcClient wraps a gRPC connection with reflection support.
type grpcClient struct {
	conn      *grpc.ClientConn
	refClient *grpcreflect.Client
	stub      grpcdynamic.Stub
	target    string
	closed    atomic.Bool
	mu        sync.Mutex
}

var grpcClients = struct {
	sync.RWMutex
	clients map[string]*grpcClient
}{
	clients: make(map[string]*grpcClient),
}

func registerGrpcClient(c *grpcClient) string {
	id := uuid.NewString()
	grpcClients.Lock()
	grpcClients.clients[id] = c
	grpcClients.Unlock()
	return id
}

func lookupGrpcClient(id string) *grpcClient {
	grpcClients.RLock()
	defer grpcClients.RUnlock()
	return grpcClients.clients[id]
}

func unregisterGrpcClient(id string) {
	grpcClients.Lock()
	delete(grpcClients.clients, id)
	grpcClients.Unlock()
}

// ---------------------------------------------------------------------------
// Method resolution
// ---------------------------------------------------------------------------

// resolveMethod resolves a name like "package.Service/Method" to its
// descriptor via server reflection.
func resolveMethod(client *grpcClient, fullMethod string) (*desc.MethodDescriptor, error) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid method format: %s (expected 'service/method')", fullMethod)
	}

	serviceName := parts[0]
	methodName := parts[1]

	svcDesc, err := client.refClient.ResolveService(serviceName)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve service %s: %w", serviceName, err)
	}

	methodDesc := svcDesc.FindMethodByName(methodName)
	if methodDesc == nil {
		return nil, fmt.Errorf("method %s not found in service %s", methodName, serviceName)
	}

	return methodDesc, nil
}

// ---------------------------------------------------------------------------
// Message conversion: script object <-> protobuf
// ---------------------------------------------------------------------------

// valueToProto converts a script object to a protobuf dynamic message.
// Unknown fields are skipped.
func valueToProto(val js.Value, msgDesc *desc.MessageDescriptor) (*dynamic.Message, error) {
	if !val.IsObject() {
		return nil, fmt.Errorf("not an object")
	}

	names, err := val.OwnPropertyNames()
	if err != nil {
		return nil, err
	}

	msg := dynamic.NewMessage(msgDesc)

	for _, name := range names {
		field := msgDesc.FindFieldByName(name)
		if field == nil {
			continue
		}

		fv, err := val.Index(name).Get()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}

		protoVal, err := valueToProtoField(fv, field)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}

		if err := msg.TrySetField(field, protoVal); err != nil {
			return nil, fmt.Errorf("setting field %s: %w", name, err)
		}
	}

	return msg, nil
}

// valueToProtoField converts a script value to a protobuf field value.
func valueToProtoField(val js.Value, field *desc.FieldDescriptor) (interface{}, error) {
	if field.IsRepeated() && !field.IsMap() {
		return valueToRepeatedField(val, field)
	}

	switch field.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT32,
		descriptorpb.FieldDescriptorProto_TYPE_SINT32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		if val.IsNumber() {
			n, err := val.AsInt32()
			return n, err
		}
	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		if val.IsNumber() {
			n, err := val.AsInt64()
			return n, err
		}
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		if val.IsNumber() {
			n, err := val.AsUint32()
			return n, err
		}
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		if val.IsNumber() {
			n, err := val.AsUint64()
			return n, err
		}
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		if val.IsNumber() {
			f, err := val.AsFloat64()
			return float32(f), err
		}
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		if val.IsNumber() {
			return val.AsFloat64()
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		if val.IsBoolean() {
			return val.AsBool()
		}
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		if val.IsString() {
			return val.AsString()
		}
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		if val.IsString() {
			s, err := val.AsString()
			return []byte(s), err
		}
		if b, err := val.ArrayBufferBytes(); err == nil {
			return b, nil
		}
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		if val.IsObject() {
			return valueToProto(val, field.GetMessageType())
		}
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		if val.IsNumber() {
			return val.AsInt32()
		}
		if val.IsString() {
			name, err := val.AsString()
			if err != nil {
				return nil, err
			}
			enumVal := field.GetEnumType().FindValueByName(name)
			if enumVal != nil {
				return enumVal.GetNumber(), nil
			}
			return nil, fmt.Errorf("unknown enum value %q", name)
		}
	}

	return nil, fmt.Errorf("cannot convert value to proto type %v", field.GetType())
}

// valueToRepeatedField converts a script array to a repeated protobuf field.
func valueToRepeatedField(val js.Value, field *desc.FieldDescriptor) (interface{}, error) {
	if !val.IsArray() {
		return nil, fmt.Errorf("expected array for repeated field")
	}

	length, err := val.Index("length").AsInt()
	if err != nil {
		return nil, err
	}

	result := make([]interface{}, length)
	for i := 0; i < length; i++ {
		elem, err := val.Index(i).Get()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		protoVal, err := valueToProtoField(elem, field)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		result[i] = protoVal
	}

	return result, nil
}

// protoToValue converts a protobuf dynamic message to a script object.
func protoToValue(msg *dynamic.Message) (js.Value, error) {
	obj, err := js.NewObject()
	if err != nil {
		return js.Value{}, err
	}

	for _, field := range msg.GetKnownFields() {
		if !msg.HasField(field) {
			continue
		}

		fv, err := protoFieldToValue(msg.GetField(field), field)
		if err != nil {
			return js.Value{}, fmt.Errorf("field %s: %w", field.GetName(), err)
		}
		if err := obj.Index(field.GetName()).Set(fv); err != nil {
			return js.Value{}, err
		}
	}

	return obj, nil
}

// protoFieldToValue converts a protobuf field value to a script value.
func protoFieldToValue(val interface{}, field *desc.FieldDescriptor) (js.Value, error) {
	if field.IsRepeated() && !field.IsMap() {
		return repeatedFieldToValue(val, field)
	}
	if field.IsMap() {
		return mapFieldToValue(val, field)
	}
	return protoElementToValue(val, field)
}

// protoElementToValue converts a single protobuf value, ignoring cardinality.
func protoElementToValue(val interface{}, field *desc.FieldDescriptor) (js.Value, error) {
	switch field.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT32,
		descriptorpb.FieldDescriptorProto_TYPE_SINT32,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		return js.NewInt(int(val.(int32)))
	case descriptorpb.FieldDescriptorProto_TYPE_INT64,
		descriptorpb.FieldDescriptorProto_TYPE_SINT64,
		descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return js.NewNumber(float64(val.(int64)))
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		return js.NewNumber(float64(val.(uint32)))
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64,
		descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		return js.NewNumber(float64(val.(uint64)))
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		return js.NewNumber(float64(val.(float32)))
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return js.NewNumber(val.(float64))
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return js.NewBool(val.(bool))
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return js.NewString(val.(string))
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return js.ArrayBufferCopy(val.([]byte), nil)
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:
		return protoToValue(val.(*dynamic.Message))
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		enumNum := val.(int32)
		enumVal := field.GetEnumType().FindValueByNumber(enumNum)
		if enumVal != nil {
			return js.NewString(enumVal.GetName())
		}
		return js.NewInt(int(enumNum))
	}

	return js.Value{}, fmt.Errorf("unsupported proto type: %v", field.GetType())
}

// repeatedFieldToValue converts a repeated protobuf field to a script array.
func repeatedFieldToValue(val interface{}, field *desc.FieldDescriptor) (js.Value, error) {
	elems, ok := val.([]interface{})
	if !ok {
		return js.Value{}, fmt.Errorf("expected slice, got %T", val)
	}

	arr, err := js.Array(uint32(len(elems)))
	if err != nil {
		return js.Value{}, err
	}

	for i, elem := range elems {
		ev, err := protoElementToValue(elem, field)
		if err != nil {
			return js.Value{}, err
		}
		if err := arr.Index(i).Set(ev); err != nil {
			return js.Value{}, err
		}
	}

	return arr, nil
}

// mapFieldToValue converts a protobuf map field to a script object.
func mapFieldToValue(val interface{}, field *desc.FieldDescriptor) (js.Value, error) {
	mapVal, ok := val.(map[interface{}]interface{})
	if !ok {
		return js.Value{}, fmt.Errorf("expected map, got %T", val)
	}

	obj, err := js.NewObject()
	if err != nil {
		return js.Value{}, err
	}

	valueField := field.GetMapValueType()
	for k, v := range mapVal {
		vv, err := protoElementToValue(v, valueField)
		if err != nil {
			return js.Value{}, fmt.Errorf("map value conversion: %w", err)
		}
		if err := obj.Index(fmt.Sprintf("%v", k)).Set(vv); err != nil {
			return js.Value{}, err
		}
	}

	return obj, nil
}

// ---------------------------------------------------------------------------
// Module registration
// ---------------------------------------------------------------------------

// RegisterGrpc installs a grpc object on the global object with a connect
// method. connect(target) returns a client object exposing target, services,
// methodsFor, describe, call, isConnected and close.
func RegisterGrpc() error {
	global, err := js.Global()
	if err != nil {
		return err
	}

	mod, err := js.BuildObject().
		Method("connect", 1, grpcConnect).
		Value()
	if err != nil {
		return err
	}

	_, err = global.Field("grpc", mod)
	return err
}

func grpcConnect(args []js.Value) (any, error) {
	if len(args) < 1 || !args[0].IsString() {
		return nil, js.NewCallbackError("grpc.connect: target must be a string")
	}
	target, err := args[0].AsString()
	if err != nil {
		return nil, err
	}

	conn, err := grpc.Dial(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, js.NewCallbackError(fmt.Sprintf("grpc.connect: %v", err))
	}

	client := &grpcClient{
		conn:      conn,
		refClient: grpcreflect.NewClientV1Alpha(context.Background(), rpb.NewServerReflectionClient(conn)),
		stub:      grpcdynamic.NewStub(conn),
		target:    target,
	}
	id := registerGrpcClient(client)

	return buildClientObject(id, target)
}

func buildClientObject(id, target string) (js.Value, error) {
	return js.BuildObject().
		Field("id", id).
		Property("target", func() (any, error) {
			return target, nil
		}).
		Method("isConnected", 0, func(args []js.Value) (any, error) {
			c := lookupGrpcClient(id)
			return c != nil && !c.closed.Load(), nil
		}).
		Method("services", 0, func(args []js.Value) (any, error) {
			return clientServices(id)
		}).
		Method("methodsFor", 1, func(args []js.Value) (any, error) {
			return clientMethodsFor(id, args)
		}).
		Method("describe", 1, func(args []js.Value) (any, error) {
			return clientDescribe(id, args)
		}).
		Method("call", 2, func(args []js.Value) (any, error) {
			return clientCall(id, args)
		}).
		Method("close", 0, func(args []js.Value) (any, error) {
			return nil, clientClose(id)
		}).
		Value()
}

func liveClient(id string) (*grpcClient, error) {
	c := lookupGrpcClient(id)
	if c == nil || c.closed.Load() {
		return nil, js.NewCallbackError("grpc: client is closed")
	}
	return c, nil
}

func clientServices(id string) (js.Value, error) {
	c, err := liveClient(id)
	if err != nil {
		return js.Value{}, err
	}

	services, err := c.refClient.ListServices()
	if err != nil {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("grpc: list services: %v", err))
	}

	names := make([]any, 0, len(services))
	for _, svc := range services {
		// Skip the reflection service itself
		if strings.HasPrefix(svc, "grpc.reflection") {
			continue
		}
		names = append(names, svc)
	}
	return js.ArrayOf(names...)
}

func clientMethodsFor(id string, args []js.Value) (js.Value, error) {
	c, err := liveClient(id)
	if err != nil {
		return js.Value{}, err
	}
	if len(args) < 1 || !args[0].IsString() {
		return js.Value{}, js.NewCallbackError("grpc: service name must be a string")
	}

	svcName, err := args[0].AsString()
	if err != nil {
		return js.Value{}, err
	}

	svcDesc, err := c.refClient.ResolveService(svcName)
	if err != nil {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("grpc: cannot resolve service %s: %v", svcName, err))
	}

	methods := svcDesc.GetMethods()
	names := make([]any, len(methods))
	for i, m := range methods {
		names[i] = m.GetName()
	}
	return js.ArrayOf(names...)
}

func clientDescribe(id string, args []js.Value) (js.Value, error) {
	c, err := liveClient(id)
	if err != nil {
		return js.Value{}, err
	}
	if len(args) < 1 || !args[0].IsString() {
		return js.Value{}, js.NewCallbackError("grpc: method name must be a string")
	}

	name, err := args[0].AsString()
	if err != nil {
		return js.Value{}, err
	}

	methodDesc, err := resolveMethod(c, name)
	if err != nil {
		return js.Value{}, js.NewCallbackError(err.Error())
	}

	return js.BuildObject().
		Field("name", methodDesc.GetName()).
		Field("fullName", methodDesc.GetFullyQualifiedName()).
		Field("inputType", methodDesc.GetInputType().GetFullyQualifiedName()).
		Field("outputType", methodDesc.GetOutputType().GetFullyQualifiedName()).
		Field("isClientStreaming", methodDesc.IsClientStreaming()).
		Field("isServerStreaming", methodDesc.IsServerStreaming()).
		Value()
}

func clientCall(id string, args []js.Value) (js.Value, error) {
	c, err := liveClient(id)
	if err != nil {
		return js.Value{}, err
	}
	if len(args) < 1 || !args[0].IsString() {
		return js.Value{}, js.NewCallbackError("grpc: method name must be a string")
	}

	name, err := args[0].AsString()
	if err != nil {
		return js.Value{}, err
	}

	methodDesc, err := resolveMethod(c, name)
	if err != nil {
		return js.Value{}, js.NewCallbackError(err.Error())
	}
	if methodDesc.IsClientStreaming() || methodDesc.IsServerStreaming() {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("grpc: %s is a streaming method", name))
	}

	reqMsg := dynamic.NewMessage(methodDesc.GetInputType())
	if len(args) > 1 && !args[1].IsEmpty() && !args[1].IsUndefined() {
		reqMsg, err = valueToProto(args[1], methodDesc.GetInputType())
		if err != nil {
			return js.Value{}, js.NewCallbackError(fmt.Sprintf("grpc: request conversion: %v", err))
		}
	}

	resp, err := c.stub.InvokeRpc(context.Background(), methodDesc, reqMsg)
	if err != nil {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("grpc: call %s: %v", name, err))
	}

	respMsg, err := dynamic.AsDynamicMessage(resp)
	if err != nil {
		return js.Value{}, js.NewCallbackError(fmt.Sprintf("grpc: response conversion: %v", err))
	}
	return protoToValue(respMsg)
}

func clientClose(id string) error {
	c := lookupGrpcClient(id)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed.Load() {
		c.closed.Store(true)
		c.refClient.Reset()
		c.conn.Close()
		unregisterGrpcClient(id)
	}
	return nil
}
