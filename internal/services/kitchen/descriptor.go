package kitchen

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const feedProtoFile = "lightfoot/kitchen/v1/kitchen.proto"

// feedFileProto describes the feed service so server reflection can resolve it.
func feedFileProto() *descriptorpb.FileDescriptorProto {
	wkt := func(name string) *string { return proto.String("." + name) }
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(feedProtoFile),
		Package: proto.String("lightfoot.kitchen.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			emptypb.File_google_protobuf_empty_proto.Path(),
			structpb.File_google_protobuf_struct_proto.Path(),
			timestamppb.File_google_protobuf_timestamp_proto.Path(),
			wrapperspb.File_google_protobuf_wrappers_proto.Path(),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("KitchenService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				{
					Name:       proto.String("ListOrders"),
					InputType:  wkt(string((&emptypb.Empty{}).ProtoReflect().Descriptor().FullName())),
					OutputType: wkt(string((&structpb.ListValue{}).ProtoReflect().Descriptor().FullName())),
				},
				{
					Name:       proto.String("CompleteOrder"),
					InputType:  wkt(string((&wrapperspb.Int64Value{}).ProtoReflect().Descriptor().FullName())),
					OutputType: wkt(string((&timestamppb.Timestamp{}).ProtoReflect().Descriptor().FullName())),
				},
			},
		}},
	}
}

func init() {
	fd, err := protodesc.NewFile(feedFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic("kitchen: invalid feed descriptor: " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("kitchen: register feed descriptor: " + err.Error())
	}
}
