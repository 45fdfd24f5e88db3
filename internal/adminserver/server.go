// Package adminserver is an ambient, read-only HTTP observability surface
// for a replica, separate from, and never a substitute for, the datagram
// client protocol. It exists purely for operators: "is this node up, what
// role does it hold, how far behind is it."
package adminserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/rs/cors"

	_ "github.com/riverkv/raftkv/internal/docs"
	"github.com/riverkv/raftkv/internal/replica"
)

// Inspectable is the narrow read-only view adminserver needs of a replica;
// kept separate from *replica.Replica so tests can supply a stub.
type Inspectable interface {
	ID() string
	RoleString() string
	CurrentTerm() int64
	CurrentLeader() string
	CommitIndex() int
	LastApplied() int
	LogLen() int
}

// replicaView adapts *replica.Replica to Inspectable without leaking
// raft.Role's concrete type into this package.
type replicaView struct{ r *replica.Replica }

func (v replicaView) ID() string            { return v.r.ID() }
func (v replicaView) RoleString() string    { return v.r.Role().String() }
func (v replicaView) CurrentTerm() int64    { return v.r.CurrentTerm() }
func (v replicaView) CurrentLeader() string { return v.r.CurrentLeader() }
func (v replicaView) CommitIndex() int      { return v.r.CommitIndex() }
func (v replicaView) LastApplied() int      { return v.r.LastApplied() }
func (v replicaView) LogLen() int           { return v.r.LogLen() }

// statusResponse is the JSON body served by GET /status.
//
// @Description Point-in-time snapshot of a replica's role state.
type statusResponse struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Term        int64  `json:"term"`
	Leader      string `json:"leader"`
	CommitIndex int    `json:"commit_index"`
	LastApplied int    `json:"last_applied"`
	LogLength   int    `json:"log_length"`
}

// New builds the gin engine serving /status and /swagger/*any.
func New(r *replica.Replica) *gin.Engine {
	return newFromView(replicaView{r: r})
}

func newFromView(v Inspectable) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	engine.GET("/status", statusHandler(v))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return engine
}

func corsMiddleware() gin.HandlerFunc {
	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	})
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		ctx.Next()
	}
}

// statusHandler godoc
// @Summary      Replica status
// @Description  Returns the replica's current role, term, leader, and commit progress.
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /status [get]
func statusHandler(v Inspectable) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, statusResponse{
			ID:          v.ID(),
			Role:        v.RoleString(),
			Term:        v.CurrentTerm(),
			Leader:      v.CurrentLeader(),
			CommitIndex: v.CommitIndex(),
			LastApplied: v.LastApplied(),
			LogLength:   v.LogLen(),
		})
	}
}
