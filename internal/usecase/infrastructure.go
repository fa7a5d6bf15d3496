package usecase

import "context"

// MessageProducer relays a raw outbox payload to the analytics topic.
type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
