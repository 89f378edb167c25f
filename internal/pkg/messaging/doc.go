// Package messaging publishes and consumes domain events over Kafka, NATS,
// NSQ or Google Pub/Sub behind one interface.
//
// Delivery is at-least-once on every driver: a handler returning nil acks the
// message, a handler returning an error (or panicking) asks the broker to
// redeliver it where the broker supports that. Handlers must be idempotent.
//
// A panic inside a handler is recovered and reported as an error, and the
// "cID" header is copied into the handler context as the correlation id.
package messaging
