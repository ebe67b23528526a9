package source

import (
	"context"
	"errors"
	"testing"

	"github.com/elastic-io/bucketzip/internal/errdefs"
	"github.com/elastic-io/bucketzip/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPager struct {
	mock.Mock
}

func (m *mockPager) ListPage(ctx context.Context, q types.BucketQuery, token string, max int) (*types.ObjectPage, error) {
	args := m.Called(ctx, q, token, max)
	page, _ := args.Get(0).(*types.ObjectPage)
	return page, args.Error(1)
}

var docsQuery = types.BucketQuery{Bucket: "docs", Region: "us-east-1"}

func objs(keys ...string) []types.ObjectDescriptor {
	out := make([]types.ObjectDescriptor, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.ObjectDescriptor{Bucket: "docs", Key: k, Size: types.UnknownSize})
	}
	return out
}

func collect(t *testing.T, o *Objects) []string {
	t.Helper()
	var keys []string
	for o.Next(context.Background()) {
		keys = append(keys, o.Object().Key)
	}
	return keys
}

func TestListAllPaginates(t *testing.T) {
	pager := &mockPager{}
	pager.On("ListPage", mock.Anything, docsQuery, "", 2).
		Return(&types.ObjectPage{Objects: objs("a", "b"), NextToken: "t1", Truncated: true}, nil).Once()
	pager.On("ListPage", mock.Anything, docsQuery, "t1", 2).
		Return(&types.ObjectPage{Objects: objs("c"), Truncated: false}, nil).Once()

	o := NewLister(pager, 2).ListAll(context.Background(), docsQuery)
	assert.Equal(t, []string{"a", "b", "c"}, collect(t, o))
	assert.NoError(t, o.Err())
	assert.Equal(t, 2, o.Pages())
	// 序列结束后不再请求
	assert.False(t, o.Next(context.Background()))
	pager.AssertExpectations(t)
}

func TestListAllIsLazy(t *testing.T) {
	pager := &mockPager{}
	pager.On("ListPage", mock.Anything, docsQuery, "", DefaultPageSize).
		Return(&types.ObjectPage{Objects: objs("a", "b"), NextToken: "t1", Truncated: true}, nil).Once()

	o := NewLister(pager, 0).ListAll(context.Background(), docsQuery)
	require.True(t, o.Next(context.Background()))
	require.True(t, o.Next(context.Background()))
	// 第二页只在当前批次耗尽之后请求
	pager.AssertNumberOfCalls(t, "ListPage", 1)
}

func TestListAllEmptyPagesAndTokens(t *testing.T) {
	t.Run("empty truncated page is skipped", func(t *testing.T) {
		pager := &mockPager{}
		pager.On("ListPage", mock.Anything, docsQuery, "", DefaultPageSize).
			Return(&types.ObjectPage{NextToken: "t1", Truncated: true}, nil).Once()
		pager.On("ListPage", mock.Anything, docsQuery, "t1", DefaultPageSize).
			Return(&types.ObjectPage{Objects: objs("x")}, nil).Once()

		o := NewLister(pager, 0).ListAll(context.Background(), docsQuery)
		assert.Equal(t, []string{"x"}, collect(t, o))
		assert.NoError(t, o.Err())
	})

	t.Run("truncated without token terminates", func(t *testing.T) {
		pager := &mockPager{}
		pager.On("ListPage", mock.Anything, docsQuery, "", DefaultPageSize).
			Return(&types.ObjectPage{Objects: objs("a"), Truncated: true}, nil).Once()

		o := NewLister(pager, 0).ListAll(context.Background(), docsQuery)
		assert.Equal(t, []string{"a"}, collect(t, o))
		assert.NoError(t, o.Err())
		pager.AssertExpectations(t)
	})

	t.Run("repeated token is a listing error", func(t *testing.T) {
		pager := &mockPager{}
		pager.On("ListPage", mock.Anything, docsQuery, "", DefaultPageSize).
			Return(&types.ObjectPage{Objects: objs("a"), NextToken: "t1", Truncated: true}, nil).Once()
		pager.On("ListPage", mock.Anything, docsQuery, "t1", DefaultPageSize).
			Return(&types.ObjectPage{Objects: objs("b"), NextToken: "t1", Truncated: true}, nil).Once()

		o := NewLister(pager, 0).ListAll(context.Background(), docsQuery)
		assert.Equal(t, []string{"a"}, collect(t, o))
		assert.True(t, errdefs.IsListing(o.Err()))
	})
}

func TestListAllPageFailure(t *testing.T) {
	cause := errors.New("access denied")
	pager := &mockPager{}
	pager.On("ListPage", mock.Anything, docsQuery, "", DefaultPageSize).
		Return(&types.ObjectPage{Objects: objs("a"), NextToken: "t1", Truncated: true}, nil).Once()
	pager.On("ListPage", mock.Anything, docsQuery, "t1", DefaultPageSize).
		Return(nil, cause).Once()

	o := NewLister(pager, 0).ListAll(context.Background(), docsQuery)
	assert.Equal(t, []string{"a"}, collect(t, o))

	err := o.Err()
	require.Error(t, err)
	assert.True(t, errdefs.IsListing(err))
	assert.ErrorIs(t, err, cause)
	var e *errdefs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "docs", e.Bucket)

	// 没有重试
	assert.False(t, o.Next(context.Background()))
	pager.AssertNumberOfCalls(t, "ListPage", 2)
}

func TestPrime(t *testing.T) {
	t.Run("surfaces the first page error", func(t *testing.T) {
		pager := &mockPager{}
		pager.On("ListPage", mock.Anything, docsQuery, "", DefaultPageSize).
			Return(nil, errors.New("no such bucket")).Once()

		o := NewLister(pager, 0).ListAll(context.Background(), docsQuery)
		assert.True(t, errdefs.IsListing(o.Prime(context.Background())))
		assert.False(t, o.Next(context.Background()))
	})

	t.Run("does not consume objects", func(t *testing.T) {
		pager := &mockPager{}
		pager.On("ListPage", mock.Anything, docsQuery, "", DefaultPageSize).
			Return(&types.ObjectPage{Objects: objs("a", "b")}, nil).Once()

		o := NewLister(pager, 0).ListAll(context.Background(), docsQuery)
		require.NoError(t, o.Prime(context.Background()))
		require.NoError(t, o.Prime(context.Background()))
		assert.Equal(t, []string{"a", "b"}, collect(t, o))
		pager.AssertExpectations(t)
	})
}

func TestListAllCancelled(t *testing.T) {
	pager := &mockPager{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewLister(pager, 0).ListAll(ctx, docsQuery)
	assert.False(t, o.Next(ctx))
	assert.ErrorIs(t, o.Err(), context.Canceled)
	pager.AssertNotCalled(t, "ListPage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
