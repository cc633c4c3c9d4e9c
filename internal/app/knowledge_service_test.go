package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botforge/internal/model"
)

const pricingText = "Standard TV mounting is $99. Large TV mounting is $149. Soundbar mounting is $40."

func newKnowledgeFixture(chunkSize, overlap, maxChunks, maxChars int) (*KnowledgeService, *fakeDocStore, *fakeChunkStore) {
	docs := newFakeDocStore()
	chunks := newFakeChunkStore()
	svc := NewKnowledgeService(docs, chunks, chunkSize, overlap, maxChunks, maxChars)
	return svc, docs, chunks
}

func TestIngestCreatesChunks(t *testing.T) {
	svc, _, chunks := newKnowledgeFixture(40, 10, 5, 2000)

	result, err := svc.Ingest(IngestInput{
		BotID:      1,
		Filename:   "pricing.txt",
		SourceType: "txt",
		Content:    pricingText,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunkCount)
	assert.Equal(t, "pricing.txt", result.Document.Filename)

	stored, err := chunks.ListByBotID(1)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, chunk := range stored {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, uint(1), chunk.BotID)
		assert.Equal(t, result.Document.ID, chunk.DocumentID)
		assert.Equal(t, len(chunk.Content)/4, chunk.TokenCount)
	}
}

func TestIngestRejectsEmptyContent(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	_, err := svc.Ingest(IngestInput{BotID: 1, Content: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Ingest(IngestInput{BotID: 0, Content: "text"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddManualMarksSource(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	result, err := svc.AddManual(1, "Store hours", "Open 9 to 5 on weekdays.", []string{"hours"})
	require.NoError(t, err)
	assert.True(t, result.Document.IsManual)
	assert.Equal(t, "manual", result.Document.SourceType)
	assert.Equal(t, []string{"hours"}, result.Document.TagList())
}

func TestReingestRecreatesChunks(t *testing.T) {
	svc, _, chunks := newKnowledgeFixture(40, 10, 5, 2000)

	ingested, err := svc.Ingest(IngestInput{BotID: 1, Filename: "pricing.txt", Content: pricingText})
	require.NoError(t, err)

	result, err := svc.Reingest(1, ingested.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunkCount)

	count, err := chunks.CountByDocumentID(ingested.Document.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	stored, err := chunks.ListByBotID(1)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, chunk := range stored {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
}

func TestReingestUnknownDocument(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	_, err := svc.Reingest(1, 42)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestBuildContextRanksSoundbarChunkFirst(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	_, err := svc.Ingest(IngestInput{BotID: 1, Filename: "pricing.txt", Content: pricingText})
	require.NoError(t, err)

	ctx, err := svc.BuildContext(1, "how much is soundbar mounting")
	require.NoError(t, err)

	expected := "[Knowledge Source]: g is $149. Soundbar mounting is $40." +
		"\n\n[Knowledge Source]: Standard TV mounting is $99." +
		"\n\n[Knowledge Source]: ng is $99. Large TV mounting is $149."
	assert.Equal(t, expected, ctx)
}

func TestBuildContextFiltersZeroScores(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	_, err := svc.Ingest(IngestInput{BotID: 1, Filename: "notes.txt", Content: "alpha bravo charlie"})
	require.NoError(t, err)

	ctx, err := svc.BuildContext(1, "zebra quantum")
	require.NoError(t, err)
	assert.Empty(t, ctx)
}

func TestBuildContextEmptyKnowledgeBase(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	ctx, err := svc.BuildContext(1, "anything at all")
	require.NoError(t, err)
	assert.Empty(t, ctx)
}

func TestBuildContextHonorsMaxChunks(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 2, 2000)

	_, err := svc.Ingest(IngestInput{BotID: 1, Filename: "pricing.txt", Content: pricingText})
	require.NoError(t, err)

	ctx, err := svc.BuildContext(1, "how much is soundbar mounting")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(ctx, "[Knowledge Source]: "))
}

func TestBuildContextLegacyFallback(t *testing.T) {
	svc, docs, _ := newKnowledgeFixture(40, 10, 5, 2000)

	// Flat documents with no chunk rows take the legacy scan path.
	require.NoError(t, docs.Create(&model.Document{
		BotID:    1,
		Filename: "pricing.txt",
		Content:  "TV mounting price list: Standard mounting is $99.",
	}))
	require.NoError(t, docs.Create(&model.Document{
		BotID:    1,
		Filename: "hours.txt",
		Content:  "Our office opens at nine.",
	}))

	ctx, err := svc.BuildContext(1, "What is the price of TV mounting?")
	require.NoError(t, err)
	assert.Equal(t, "From pricing.txt:\nTV mounting price list: Standard mounting is $99.", ctx)
}

func TestBuildContextLegacyTruncationAndBudget(t *testing.T) {
	svc, docs, _ := newKnowledgeFixture(40, 10, 5, 2000)

	long := strings.Repeat("price ", 200) // 1200 chars, truncated to 1000
	require.NoError(t, docs.Create(&model.Document{BotID: 1, Filename: "a.txt", Content: long}))
	require.NoError(t, docs.Create(&model.Document{BotID: 1, Filename: "b.txt", Content: long}))
	require.NoError(t, docs.Create(&model.Document{BotID: 1, Filename: "c.txt", Content: long}))

	ctx, err := svc.BuildContext(1, "price")
	require.NoError(t, err)

	// Only the 1000-char previews count against the 2000-char budget, so
	// two documents fit exactly and the third is dropped. Equal scores fall
	// back to document id order.
	assert.Equal(t, 2, strings.Count(ctx, "From "))
	assert.True(t, strings.HasPrefix(ctx, "From a.txt:\n"))
	assert.Contains(t, ctx, "\n\n---\n\nFrom b.txt:\n")
	assert.NotContains(t, ctx, "c.txt")
	assert.Len(t, ctx, 2*(len("From a.txt:\n")+1000)+len("\n\n---\n\n"))
}

func TestListDocumentsIncludesChunkCounts(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	_, err := svc.Ingest(IngestInput{BotID: 1, Filename: "pricing.txt", Content: pricingText, Tags: []string{"pricing"}})
	require.NoError(t, err)
	_, err = svc.AddManual(1, "note", "Soundbar install takes one hour.", nil)
	require.NoError(t, err)

	infos, err := svc.ListDocuments(1)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byName := map[string]DocumentInfo{}
	for _, info := range infos {
		byName[info.Filename] = info
	}
	assert.EqualValues(t, 3, byName["pricing.txt"].ChunkCount)
	assert.Equal(t, []string{"pricing"}, byName["pricing.txt"].Tags)
	assert.EqualValues(t, 1, byName["note"].ChunkCount)
	assert.True(t, byName["note"].IsManual)
}

func TestDeleteDocumentCascadesChunks(t *testing.T) {
	svc, _, chunks := newKnowledgeFixture(40, 10, 5, 2000)

	ingested, err := svc.Ingest(IngestInput{BotID: 1, Filename: "pricing.txt", Content: pricingText})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDocument(1, ingested.Document.ID))

	count, err := chunks.CountByDocumentID(ingested.Document.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	infos, err := svc.ListDocuments(1)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestUpdateTags(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	ingested, err := svc.Ingest(IngestInput{BotID: 1, Filename: "pricing.txt", Content: pricingText})
	require.NoError(t, err)

	doc, err := svc.UpdateTags(1, ingested.Document.ID, []string{"pricing", "mounting"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pricing", "mounting"}, doc.TagList())
}

func TestSummaryAggregates(t *testing.T) {
	svc, _, _ := newKnowledgeFixture(40, 10, 5, 2000)

	_, err := svc.Ingest(IngestInput{BotID: 1, Filename: "pricing.txt", SourceType: "txt", Content: pricingText, Tags: []string{"pricing"}})
	require.NoError(t, err)
	_, err = svc.AddManual(1, "note", "Soundbar install takes one hour.", []string{"install"})
	require.NoError(t, err)

	summary, err := svc.Summary(1)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.FileCount)
	assert.Equal(t, 1, summary.ManualCount)
	assert.Equal(t, 1, summary.TypeCounts["txt"])
	assert.Equal(t, 1, summary.TypeCounts["manual"])
	assert.Equal(t, []string{"install", "pricing"}, summary.ContentTopics)
	assert.Equal(t, len(pricingText)+len("Soundbar install takes one hour."), summary.TotalLength)
}
