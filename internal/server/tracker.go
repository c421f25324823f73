package server

import (
	"context"
	"net/http"

	"bf6-tracker/internal/api"
	"bf6-tracker/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "bf6.v1.StatsTracker"
	ServicePath = "/" + ServiceName + "/"

	GetOverviewProcedure    = ServicePath + "GetOverview"
	GetStatHistoryProcedure = ServicePath + "GetStatHistory"
)

// TrackerServer exposes the services over Connect. Messages are
// google.protobuf.Struct so clients can speak plain JSON.
type TrackerServer struct {
	overviewSvc *service.OverviewService
	historySvc  *service.StatHistoryService
	logger      zerolog.Logger
}

func NewTrackerServer(overviewSvc *service.OverviewService, historySvc *service.StatHistoryService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{overviewSvc: overviewSvc, historySvc: historySvc, logger: logger}
}

// Handler returns the path to mount the service on and its handler.
func (s *TrackerServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetOverviewProcedure, connect.NewUnaryHandler(GetOverviewProcedure, s.GetOverview, opts...))
	mux.Handle(GetStatHistoryProcedure, connect.NewUnaryHandler(GetStatHistoryProcedure, s.GetStatHistory, opts...))
	return ServicePath, mux
}

func (s *TrackerServer) GetOverview(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	overview, err := s.overviewSvc.GetOverview(ctx, service.OverviewRequest{
		PlayerID:  stringField(fields, "playerId"),
		Platform:  stringField(fields, "platform"),
		Refresh:   boolField(fields, "refresh"),
		Forwarded: forwarded(req.Header(), fields),
	})
	if err != nil {
		return nil, s.toConnectError(ctx, "GetOverview", err)
	}

	msg, err := toStruct(overviewView(overview))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func (s *TrackerServer) GetStatHistory(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	history, err := s.historySvc.GetStatHistory(ctx, service.StatHistoryRequest{
		PlayerID:  stringField(fields, "playerId"),
		Platform:  stringField(fields, "platform"),
		Stat:      stringField(fields, "stat"),
		Forwarded: forwarded(req.Header(), fields),
	})
	if err != nil {
		return nil, s.toConnectError(ctx, "GetStatHistory", err)
	}

	msg, err := toStruct(statHistoryView(history))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func (s *TrackerServer) toConnectError(ctx context.Context, method string, err error) error {
	code := CodeOf(err)
	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &s.logger
	}
	log.Warn().Err(err).Str("method", method).Str("code", code.String()).Msg("request failed")
	return connect.NewError(code, err)
}

func forwarded(h http.Header, fields map[string]*structpb.Value) api.Forwarded {
	return api.Forwarded{
		Accept:         h.Get("Accept"),
		AcceptLanguage: h.Get("Accept-Language"),
		UserAgent:      h.Get("User-Agent"),
		Cookie:         h.Get("Cookie"),
		CFBMToken:      stringField(fields, "cfBmToken"),
	}
}

func stringField(fields map[string]*structpb.Value, key string) string {
	return fields[key].GetStringValue()
}

func boolField(fields map[string]*structpb.Value, key string) bool {
	return fields[key].GetBoolValue()
}
