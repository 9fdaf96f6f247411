package message

import (
	"context"
	"fmt"
	"strings"
)

type dryRunClient struct{}

func (c *dryRunClient) SendMessage(_ context.Context, message Message) error {
	fmt.Println(strings.Repeat("-", 79))
	fmt.Println("Recipient:", message.ToPhoneNumber)
	fmt.Println("Content:", message.Body)
	fmt.Println(strings.Repeat("-", 79))

	return nil
}

func (c *dryRunClient) MessengerType() MessengerType {
	return MessengerTypeDryRun
}

func NewDryRunClient() (MessengerClient, error) {
	return &dryRunClient{}, nil
}
