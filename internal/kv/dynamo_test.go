package kv

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	assert.Equal(t, "group_posts", partition("group_posts:g1:p1"))
	assert.Equal(t, "group_posts", partition("group_posts:g1:"))
	assert.Equal(t, "plain", partition("plain"))
}

func TestTransactChunksFoldsGuardIntoWrite(t *testing.T) {
	s := NewDynamoStore(nil, "kv")

	chunks, err := s.transactChunks([]Mutation{
		Put("post:p1", []byte("v2")),
		Del("post:req"),
	}, []Guard{
		Expect("post:p1", []byte("v1")),
		Expect("published_shifts:p1:s1", []byte("row")),
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	items := chunks[0]
	require.Len(t, items, 3)

	// 未被写入的守卫键变成独立的 ConditionCheck
	require.NotNil(t, items[0].ConditionCheck)
	assert.Equal(t, "v = :guard", aws.ToString(items[0].ConditionCheck.ConditionExpression))

	require.NotNil(t, items[1].Put)
	assert.Equal(t, "v = :guard", aws.ToString(items[1].Put.ConditionExpression))

	require.NotNil(t, items[2].Delete)
	assert.Nil(t, items[2].Delete.ConditionExpression)
}

func TestTransactChunksAbsentGuard(t *testing.T) {
	s := NewDynamoStore(nil, "kv")

	chunks, err := s.transactChunks([]Mutation{Put("invite:ABC123", []byte("g1"))}, []Guard{Absent("invite:ABC123")})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0], 1)
	assert.Equal(t, "attribute_not_exists(sk)", aws.ToString(chunks[0][0].Put.ConditionExpression))
	assert.Nil(t, chunks[0][0].Put.ExpressionAttributeValues)
}

func TestTransactChunksSplitsLargeBatches(t *testing.T) {
	s := NewDynamoStore(nil, "kv")

	muts := make([]Mutation, 0, 250)
	for i := range 250 {
		muts = append(muts, Put(fmt.Sprintf("published_shifts:p1:%03d", i), []byte("x")))
	}

	chunks, err := s.transactChunks(muts, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)
}

func TestTransactChunksPutsGuardedWritesFirst(t *testing.T) {
	s := NewDynamoStore(nil, "kv")

	// 和采用调查时的写入顺序一致：先是大量班次，最后才是带守卫的调查投稿
	muts := make([]Mutation, 0, 152)
	for i := range 150 {
		muts = append(muts, Put(fmt.Sprintf("published_shifts:p1:%03d", i), []byte("x")))
	}
	muts = append(muts, Put("post:p1", []byte("v2")), Put("group_posts:g1:p1", []byte("v2")))

	chunks, err := s.transactChunks(muts, []Guard{
		Expect("post:p1", []byte("v1")),
		Absent("invite:ABC123"),
	})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 53)

	require.NotNil(t, chunks[0][0].ConditionCheck)
	assert.Equal(t, "attribute_not_exists(sk)", aws.ToString(chunks[0][0].ConditionCheck.ConditionExpression))
	require.NotNil(t, chunks[0][1].Put)
	assert.Equal(t, "v = :guard", aws.ToString(chunks[0][1].Put.ConditionExpression))

	for _, item := range chunks[1] {
		require.NotNil(t, item.Put)
		assert.Nil(t, item.Put.ConditionExpression)
	}
}

func TestTransactChunksRejectsTooManyGuards(t *testing.T) {
	s := NewDynamoStore(nil, "kv")

	guards := make([]Guard, 0, 101)
	for i := range 101 {
		guards = append(guards, Absent(fmt.Sprintf("invite:%03d", i)))
	}

	_, err := s.transactChunks(nil, guards)
	assert.Error(t, err)
}
