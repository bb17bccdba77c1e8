package pushport

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-stomp/stomp/v3"
	"github.com/rs/zerolog/log"

	"github.com/cinsalaco/roydon-crossing/pkg/trains"
)

const reconnectDelay = 30 * time.Second

// StompClient maintains a durable subscription to the Push Port topic. The
// subscription name is derived from the client identity and reused across
// reconnects so the broker's redelivery semantics hold.
type StompClient struct {
	Address  string
	Username string
	Password string
	Topic    string
	ClientID string

	Ingester *Ingester
	Cache    *trains.Cache
}

// Run connects and consumes frames until the process exits. Connection
// failures retry forever on a fixed delay; frame-level failures are dropped
// and counted without touching the connection.
func (s *StompClient) Run() {
	retry := backoff.NewConstantBackOff(reconnectDelay)

	for {
		err := s.runConnection()

		s.Cache.SetFeedConnected(false)
		log.Error().Err(err).Str("address", s.Address).Msg("Push Port connection lost, reconnecting")

		time.Sleep(retry.NextBackOff())
	}
}

func (s *StompClient) runConnection() error {
	stompOptions := []func(*stomp.Conn) error{
		stomp.ConnOpt.Login(s.Username, s.Password),
		stomp.ConnOpt.Header("client-id", s.ClientID),
		stomp.ConnOpt.HeartBeat(10*time.Second, 10*time.Second),
	}

	conn, err := stomp.Dial("tcp", s.Address, stompOptions...)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	sub, err := conn.Subscribe(s.Topic, stomp.AckAuto,
		stomp.SubscribeOpt.Header("activemq.subscriptionName", s.ClientID))
	if err != nil {
		return err
	}

	s.Cache.SetFeedConnected(true)
	log.Info().Str("topic", s.Topic).Str("client-id", s.ClientID).Msg("Subscribed to Darwin Push Port")

	for msg := range sub.C {
		if msg.Err != nil {
			return msg.Err
		}

		s.handleFrame(msg)
	}

	return errors.New("subscription channel closed")
}

func (s *StompClient) handleFrame(msg *stomp.Message) {
	pushPortData, err := DecodeFrame(msg.Body)
	if err != nil {
		// Garbled frames are an expected feature of the feed, not a fault.
		log.Debug().Err(err).Msg("Dropped Push Port frame")
		return
	}

	s.Ingester.Process(pushPortData, time.Now())
}
