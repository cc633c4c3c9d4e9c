package app

import (
	"errors"
	"sort"
	"strings"

	"botforge/internal/knowledge"
	"botforge/internal/model"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore is the persistence surface for knowledge documents.
type DocumentStore interface {
	Create(doc *model.Document) error
	GetByIDAndBotID(id, botID uint) (*model.Document, error)
	ListByBotID(botID uint) ([]model.Document, error)
	Update(doc *model.Document) error
	DeleteByIDAndBotID(id, botID uint) error
	DeleteByBotID(botID uint) error
}

// ChunkStore is the persistence surface for document chunks.
type ChunkStore interface {
	CreateBatch(chunks []model.Chunk) error
	ListByBotID(botID uint) ([]model.Chunk, error)
	CountByDocumentID(documentID uint) (int64, error)
	DeleteByDocumentID(documentID uint) error
	DeleteByBotID(botID uint) error
}

// KnowledgeService owns document ingestion and context assembly. Retrieval
// runs over chunked documents when any chunks exist for the bot, and falls
// back to scanning whole legacy documents otherwise.
type KnowledgeService struct {
	docs   DocumentStore
	chunks ChunkStore

	chunkSize       int
	chunkOverlap    int
	maxChunks       int
	maxContextChars int
}

func NewKnowledgeService(docs DocumentStore, chunks ChunkStore, chunkSize, chunkOverlap, maxChunks, maxContextChars int) *KnowledgeService {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 {
		chunkOverlap = 100
	}
	if maxChunks <= 0 {
		maxChunks = 5
	}
	if maxContextChars <= 0 {
		maxContextChars = 2000
	}
	return &KnowledgeService{
		docs:            docs,
		chunks:          chunks,
		chunkSize:       chunkSize,
		chunkOverlap:    chunkOverlap,
		maxChunks:       maxChunks,
		maxContextChars: maxContextChars,
	}
}

type IngestInput struct {
	BotID      uint
	Filename   string
	SourceType string
	Content    string
	Tags       []string
	IsManual   bool
}

type IngestResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

// Ingest stores a document and its chunks. Content arrives as raw text;
// extraction from the original file format happens upstream.
func (s *KnowledgeService) Ingest(input IngestInput) (*IngestResult, error) {
	if input.BotID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrInvalidInput
	}
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		filename = "Untitled"
	}
	sourceType := strings.TrimSpace(input.SourceType)
	if input.IsManual {
		sourceType = "manual"
	}
	if sourceType == "" {
		sourceType = "text"
	}

	doc := &model.Document{
		BotID:      input.BotID,
		Filename:   filename,
		SourceType: sourceType,
		Content:    content,
		IsManual:   input.IsManual,
	}
	doc.SetTags(input.Tags)
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}

	count, err := s.createChunks(doc)
	if err != nil {
		return nil, err
	}
	return &IngestResult{Document: *doc, ChunkCount: count}, nil
}

// AddManual stores an operator-typed snippet as a manual document.
func (s *KnowledgeService) AddManual(botID uint, title, content string, tags []string) (*IngestResult, error) {
	return s.Ingest(IngestInput{
		BotID:    botID,
		Filename: title,
		Content:  content,
		Tags:     tags,
		IsManual: true,
	})
}

// Reingest discards a document's chunks and rebuilds them from the stored
// content, picking up chunking config changes.
func (s *KnowledgeService) Reingest(botID, documentID uint) (*IngestResult, error) {
	doc, err := s.getDocument(botID, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.chunks.DeleteByDocumentID(doc.ID); err != nil {
		return nil, err
	}
	count, err := s.createChunks(doc)
	if err != nil {
		return nil, err
	}
	return &IngestResult{Document: *doc, ChunkCount: count}, nil
}

func (s *KnowledgeService) createChunks(doc *model.Document) (int, error) {
	pieces, err := knowledge.Split(doc.Content, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return 0, err
	}
	chunks := make([]model.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = model.Chunk{
			DocumentID: doc.ID,
			BotID:      doc.BotID,
			ChunkIndex: i,
			Content:    piece,
			TokenCount: knowledge.EstimateTokens(piece),
		}
	}
	if err := s.chunks.CreateBatch(chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// DocumentInfo pairs a document's metadata with its chunk count.
type DocumentInfo struct {
	ID         uint     `json:"id"`
	Filename   string   `json:"filename"`
	SourceType string   `json:"source_type"`
	Tags       []string `json:"tags"`
	IsManual   bool     `json:"is_manual"`
	ChunkCount int64    `json:"chunk_count"`
	Length     int      `json:"content_length"`
	CreatedAt  string   `json:"created_at"`
}

func (s *KnowledgeService) ListDocuments(botID uint) ([]DocumentInfo, error) {
	if botID == 0 {
		return nil, ErrInvalidInput
	}
	docs, err := s.docs.ListByBotID(botID)
	if err != nil {
		return nil, err
	}
	infos := make([]DocumentInfo, 0, len(docs))
	for i := range docs {
		count, err := s.chunks.CountByDocumentID(docs[i].ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, DocumentInfo{
			ID:         docs[i].ID,
			Filename:   docs[i].Filename,
			SourceType: docs[i].SourceType,
			Tags:       docs[i].TagList(),
			IsManual:   docs[i].IsManual,
			ChunkCount: count,
			Length:     len(docs[i].Content),
			CreatedAt:  docs[i].CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return infos, nil
}

func (s *KnowledgeService) UpdateTags(botID, documentID uint, tags []string) (*model.Document, error) {
	doc, err := s.getDocument(botID, documentID)
	if err != nil {
		return nil, err
	}
	doc.SetTags(tags)
	if err := s.docs.Update(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *KnowledgeService) DeleteDocument(botID, documentID uint) error {
	doc, err := s.getDocument(botID, documentID)
	if err != nil {
		return err
	}
	if err := s.chunks.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	return s.docs.DeleteByIDAndBotID(doc.ID, botID)
}

// KnowledgeSummary describes a bot's knowledge base at a glance.
type KnowledgeSummary struct {
	FileCount     int            `json:"file_count"`
	ManualCount   int            `json:"manual_count"`
	TypeCounts    map[string]int `json:"type_counts"`
	TotalLength   int            `json:"total_length"`
	ContentTopics []string       `json:"content_topics"`
}

func (s *KnowledgeService) Summary(botID uint) (*KnowledgeSummary, error) {
	if botID == 0 {
		return nil, ErrInvalidInput
	}
	docs, err := s.docs.ListByBotID(botID)
	if err != nil {
		return nil, err
	}

	summary := &KnowledgeSummary{TypeCounts: map[string]int{}}
	topicSet := map[string]struct{}{}
	for i := range docs {
		summary.FileCount++
		if docs[i].IsManual {
			summary.ManualCount++
		}
		summary.TypeCounts[docs[i].SourceType]++
		summary.TotalLength += len(docs[i].Content)
		for _, tag := range docs[i].TagList() {
			topicSet[tag] = struct{}{}
		}
	}
	for tag := range topicSet {
		summary.ContentTopics = append(summary.ContentTopics, tag)
	}
	sort.Strings(summary.ContentTopics)
	return summary, nil
}

func (s *KnowledgeService) getDocument(botID, documentID uint) (*model.Document, error) {
	if botID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndBotID(documentID, botID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// BuildContext assembles the knowledge block for a query. An empty result
// is normal: no documents, or nothing scored above zero.
func (s *KnowledgeService) BuildContext(botID uint, query string) (string, error) {
	if botID == 0 {
		return "", ErrInvalidInput
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	src, err := s.sourceFor(botID)
	if err != nil {
		return "", err
	}
	if src == nil {
		return "", nil
	}

	matches := src.search(query)
	if len(matches) == 0 {
		return "", nil
	}
	sortCandidates(matches)
	return src.assemble(matches), nil
}

func (s *KnowledgeService) sourceFor(botID uint) (contextSource, error) {
	chunks, err := s.chunks.ListByBotID(botID)
	if err != nil {
		return nil, err
	}
	if len(chunks) > 0 {
		return &chunkSource{chunks: chunks, maxChunks: s.maxChunks}, nil
	}

	docs, err := s.docs.ListByBotID(botID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &legacySource{docs: docs, maxChars: s.maxContextChars}, nil
}

// contextSource is one retrieval path over a bot's knowledge. The chunked
// and legacy flat-document shapes can coexist for a bot; each is a source.
type contextSource interface {
	// search returns candidates scored above zero for the query.
	search(query string) []candidate
	// assemble renders sorted candidates into the context block.
	assemble(matches []candidate) string
}

type candidate struct {
	docID      uint
	chunkIndex int
	content    string
	filename   string
	score      int
}

// sortCandidates orders by score descending, then document ID and chunk
// index ascending so equal scores resolve deterministically.
func sortCandidates(matches []candidate) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].docID != matches[j].docID {
			return matches[i].docID < matches[j].docID
		}
		return matches[i].chunkIndex < matches[j].chunkIndex
	})
}

type chunkSource struct {
	chunks    []model.Chunk
	maxChunks int
}

func (s *chunkSource) search(query string) []candidate {
	var matches []candidate
	for i := range s.chunks {
		score := knowledge.Score(s.chunks[i].Content, query)
		if score <= 0 {
			continue
		}
		matches = append(matches, candidate{
			docID:      s.chunks[i].DocumentID,
			chunkIndex: s.chunks[i].ChunkIndex,
			content:    s.chunks[i].Content,
			score:      score,
		})
	}
	return matches
}

func (s *chunkSource) assemble(matches []candidate) string {
	if len(matches) > s.maxChunks {
		matches = matches[:s.maxChunks]
	}
	parts := make([]string, len(matches))
	for i := range matches {
		parts[i] = "[Knowledge Source]: " + matches[i].content
	}
	return strings.Join(parts, "\n\n")
}

const legacyDocLimit = 1000

type legacySource struct {
	docs     []model.Document
	maxChars int
}

func (s *legacySource) search(query string) []candidate {
	keywords := knowledge.ExtractKeywords(query)
	var matches []candidate
	for i := range s.docs {
		score := knowledge.LegacyScore(s.docs[i].Content, keywords, query)
		if score <= 0 {
			continue
		}
		matches = append(matches, candidate{
			docID:    s.docs[i].ID,
			content:  s.docs[i].Content,
			filename: s.docs[i].Filename,
			score:    score,
		})
	}
	return matches
}

// assemble truncates each document to its preview and stops once the
// previews alone would exceed the character budget. Headers and separators
// ride free; only content is charged.
func (s *legacySource) assemble(matches []candidate) string {
	var parts []string
	total := 0
	for i := range matches {
		preview := []rune(matches[i].content)
		if len(preview) > legacyDocLimit {
			preview = preview[:legacyDocLimit]
		}
		if total+len(preview) > s.maxChars {
			break
		}
		parts = append(parts, "From "+matches[i].filename+":\n"+string(preview))
		total += len(preview)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
