package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSMSClient struct {
	sent []string
	fail bool
}

func (r *recordingSMSClient) Send(ctx context.Context, phone, message string) error {
	if r.fail {
		return errors.New("gateway down")
	}
	r.sent = append(r.sent, phone+": "+message)
	return nil
}

func TestSMSNotifiesEveryPhone(t *testing.T) {
	cli := &recordingSMSClient{}
	sms := NewSMS(SMSConfig{Phones: []string{"+5565900000001", "+5565900000002"}}, cli)

	err := sms.Notify(context.Background(), "PANIC ALERT", "João Silva at -15.5989,-56.0949")
	assert.NoError(t, err)
	assert.Len(t, cli.sent, 2)
	assert.Contains(t, cli.sent[0], "PANIC ALERT")
}

func TestSMSWithoutClient(t *testing.T) {
	sms := NewSMS(SMSConfig{Phones: []string{"+5565900000001"}}, nil)
	assert.Error(t, sms.Notify(context.Background(), "t", "b"))
}

func TestMultiContinuesPastFailures(t *testing.T) {
	broken := NewSMS(SMSConfig{Phones: []string{"+1"}}, &recordingSMSClient{fail: true})
	ok := &recordingSMSClient{}
	working := NewSMS(SMSConfig{Phones: []string{"+2"}}, ok)

	err := Multi{broken, working}.Notify(context.Background(), "t", "b")
	assert.Error(t, err)
	assert.Len(t, ok.sent, 1)
}
