package records

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ClientMock struct {
	mock.Mock
}

func (m *ClientMock) Create(ctx context.Context, payload map[string]any) (*CreatedRecord, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CreatedRecord), args.Error(1)
}

var _ ClientInterface = (*ClientMock)(nil)
