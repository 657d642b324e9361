package kafka

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
)

func TestCreate_SaramaWithMockBroker(t *testing.T) {
	broker := sarama.NewMockBroker(t, 1)
	defer broker.Close()
	broker.SetHandlerByMap(map[string]sarama.MockResponse{
		"MetadataRequest": sarama.NewMockMetadataResponse(t).
			SetBroker(broker.Addr(), broker.BrokerID()).
			SetLeader("my-topic", 0, broker.BrokerID()),
	})

	cfg := testConfig()
	cfg.BootstrapServers = broker.Addr()
	sess, err := Create("sarama", cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, ok := sess.(*saramaSession)
	if !ok {
		t.Fatalf("want *saramaSession, got %T", sess)
	}
	if len(s.topics) != 1 || s.topics[0] != "my-topic" {
		t.Fatalf("topics not subscribed: %v", s.topics)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCreate_IncorrectAutoOffsetReset(t *testing.T) {
	cfg := testConfig()
	cfg.AutoOffsetReset = "incorrect-auto-offset-reset"
	for _, driver := range []string{"sarama", "franz"} {
		_, err := Create(driver, cfg)
		if !errors.Is(err, ErrCreate) || !errors.Is(err, ErrInvalidOffsetReset) {
			t.Fatalf("%s: want classified create error, got %v", driver, err)
		}
	}
}

func TestCreate_ClientConstructionFailure(t *testing.T) {
	broker := sarama.NewMockBroker(t, 1)
	addr := broker.Addr()
	broker.Close()

	cfg := testConfig()
	cfg.BootstrapServers = addr
	_, err := Create("sarama", cfg)
	if !errors.Is(err, ErrCreate) || errors.Is(err, ErrSubscribe) {
		t.Fatalf("want create error, got %v", err)
	}
}

func TestCreate_UnknownDriver(t *testing.T) {
	if _, err := Create("confluent", testConfig()); !errors.Is(err, ErrCreate) {
		t.Fatalf("want create error for unknown driver, got %v", err)
	}
}

type rejectingSession struct {
	fakeSession
	wasClosed bool
}

func (r *rejectingSession) Subscribe([]string) error { return errors.New("subscription refused") }
func (r *rejectingSession) Close() error             { r.wasClosed = true; return nil }

func TestCreate_SubscribeFailureClosesSession(t *testing.T) {
	rs := &rejectingSession{}
	Register("rejecting", func(Config) (Session, error) { return rs, nil })

	_, err := Create("rejecting", testConfig())
	if !errors.Is(err, ErrSubscribe) || errors.Is(err, ErrCreate) {
		t.Fatalf("want subscribe error, got %v", err)
	}
	if !rs.wasClosed {
		t.Fatal("session must be closed after failed subscription")
	}
}

func TestFranzOptions(t *testing.T) {
	cfg := testConfig()
	opts, err := franzOptions(cfg)
	if err != nil {
		t.Fatalf("franzOptions: %v", err)
	}
	if len(opts) == 0 {
		t.Fatal("no client options")
	}
}

func TestSaramaConfig(t *testing.T) {
	cfg := testConfig().withDefaults()
	sc, err := saramaConfig(cfg)
	if err != nil {
		t.Fatalf("saramaConfig: %v", err)
	}
	if sc.ClientID != ClientID {
		t.Fatalf("want client id %q, got %q", ClientID, sc.ClientID)
	}
	if sc.Consumer.Offsets.Initial != sarama.OffsetOldest {
		t.Fatal("earliest must map to OffsetOldest")
	}
	if sc.Consumer.Group.Session.Timeout != cfg.SessionTimeout() {
		t.Fatalf("session timeout not passed through: %s", sc.Consumer.Group.Session.Timeout)
	}
	if !sc.Consumer.Return.Errors {
		t.Fatal("consumer errors must be returned")
	}
}

func TestDrivers_Registered(t *testing.T) {
	var haveSarama, haveFranz bool
	for _, d := range Drivers() {
		haveSarama = haveSarama || d == "sarama"
		haveFranz = haveFranz || d == "franz"
	}
	if !haveSarama || !haveFranz {
		t.Fatalf("want sarama and franz registered, got %v", Drivers())
	}
}
