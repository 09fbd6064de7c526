// Package api provides the REST API server for midistream
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/midistream/pkg/decode"
	"github.com/james-see/midistream/pkg/events"
	"github.com/james-see/midistream/pkg/midifile"
	"github.com/james-see/midistream/pkg/notes"
)

// @title midistream API
// @version 1.0
// @description API for decoding Standard MIDI Files into events and merged note streams
// @host localhost:8080
// @BasePath /api/v1

const defaultLimit = 100

// Server holds the handler configuration
type Server struct {
	workers int
}

// NewRouter builds the gin engine with every route registered. workers
// bounds the parallel track decoders per request (0 = one per CPU).
func NewRouter(workers int) *gin.Engine {
	s := &Server{workers: workers}
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/kinds", listKinds)
		v1.POST("/info", s.handleInfo)
		v1.POST("/events", s.handleEvents)
		v1.POST("/notes", s.handleNotes)
		v1.POST("/verify", s.handleVerify)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartServer starts the API server on the specified port
func StartServer(port, workers int) error {
	return NewRouter(workers).Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "midistream",
	})
}

// listKinds godoc
// @Summary List event kinds
// @Description Returns the names of every event kind the decoder produces
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/kinds [get]
func listKinds(c *gin.Context) {
	kinds := events.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	c.JSON(http.StatusOK, gin.H{"kinds": names})
}

type trackInfo struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Events int    `json:"events"`
	Notes  int    `json:"notes"`
	Length uint64 `json:"length"`
	Error  string `json:"error,omitempty"`
}

// handleInfo godoc
// @Summary Describe a MIDI file
// @Description Upload a MIDI file and receive its header and per-track counts
// @Tags decode
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/info [post]
func (s *Server) handleInfo(c *gin.Context) {
	f, _, ok := readUpload(c)
	if !ok {
		return
	}

	results, err := decode.Tracks(c.Request.Context(), f, s.workers)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	tracks := make([]trackInfo, len(results))
	for i, r := range results {
		tracks[i] = trackInfo{
			Index:  r.Index,
			Name:   r.Name(),
			Events: len(r.Events),
			Notes:  r.NoteCount(),
			Length: r.Length(),
		}
		if r.Err != nil {
			tracks[i].Error = r.Err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": decode.Summarize(f, results),
		"tracks":  tracks,
	})
}

type eventView struct {
	Ticks uint64       `json:"ticks"`
	Kind  string       `json:"kind"`
	Event events.Event `json:"event"`
}

// handleEvents godoc
// @Summary Decode the events of one track
// @Description Upload a MIDI file and receive a batch of decoded events with a resume cursor
// @Tags decode
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file"
// @Param track query int false "Track index (default: 0)"
// @Param cursor query string false "Cursor returned by a previous call"
// @Param limit query int false "Maximum events (default: 100, 0 for all)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/v1/events [post]
func (s *Server) handleEvents(c *gin.Context) {
	track, err := strconv.Atoi(c.DefaultQuery("track", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track"})
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	f, _, ok := readUpload(c)
	if !ok {
		return
	}
	if track < 0 || track >= f.NumTracks() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File has %d tracks", f.NumTracks())})
		return
	}

	res, err := decode.Batch(f, track, c.Query("cursor"), limit)
	if errors.Is(err, decode.ErrBadCursor) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]eventView, len(res.Events))
	for i, ev := range res.Events {
		views[i] = eventView{Ticks: ev.Ticks, Kind: ev.Event.Kind().String(), Event: ev.Event}
	}
	body := gin.H{
		"track":  res.Track,
		"events": views,
		"next":   res.Next,
	}
	if res.Err != nil {
		body["error"] = res.Err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// handleNotes godoc
// @Summary Merged note stream
// @Description Upload a MIDI file and receive the notes of all tracks in start order
// @Tags decode
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file"
// @Param limit query int false "Maximum notes (default: 100, 0 for all)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/notes [post]
func (s *Server) handleNotes(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	f, _, ok := readUpload(c)
	if !ok {
		return
	}

	it, err := decode.Notes(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	list, err := notes.Collect[notes.Note](it, limit)
	if list == nil {
		list = []notes.Note{}
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"notes": list, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": list})
}

// handleVerify godoc
// @Summary Cross-check the decoder
// @Description Upload a MIDI file and compare note events with the gomidi reader
// @Tags decode
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file"
// @Success 200 {object} decode.Report
// @Failure 400 {object} map[string]string
// @Router /api/v1/verify [post]
func (s *Server) handleVerify(c *gin.Context) {
	_, data, ok := readUpload(c)
	if !ok {
		return
	}

	rep, err := decode.Verify(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": rep.OK(), "report": rep})
}

func queryLimit(c *gin.Context) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return 0, false
	}
	return limit, true
}

// readUpload reads the multipart "file" field and scans it as a MIDI
// file. On failure the response is already written.
func readUpload(c *gin.Context) (*midifile.File, []byte, bool) {
	// Get uploaded file
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, nil, false
	}
	defer func() { _ = file.Close() }()

	// Read file content
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, nil, false
	}

	if !midifile.Sniff(data) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not a Standard MIDI File"})
		return nil, nil, false
	}
	f, err := midifile.Parse(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return f, data, true
}
