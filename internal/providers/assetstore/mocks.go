package assetstore

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ClientMock struct {
	mock.Mock
}

func (m *ClientMock) Presign(ctx context.Context, files []FileSpec) ([]PresignedUpload, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PresignedUpload), args.Error(1)
}

func (m *ClientMock) Upload(ctx context.Context, uploadURL string, content []byte, contentType string) error {
	args := m.Called(ctx, uploadURL, content, contentType)
	return args.Error(0)
}

func (m *ClientMock) Finalize(ctx context.Context, keys []string) ([]string, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

var _ ClientInterface = (*ClientMock)(nil)
