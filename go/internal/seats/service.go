package seats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// SeatServiceName is the fully-qualified name of the seat RPC service
	SeatServiceName = "seats.v1.SeatService"

	GetAllSeatsProcedure = "/" + SeatServiceName + "/GetAllSeats"
	SetCheckinProcedure  = "/" + SeatServiceName + "/SetCheckin"
	ResetAllProcedure    = "/" + SeatServiceName + "/ResetAll"
)

type GetAllSeatsRequest struct{}

type GetAllSeatsResponse struct {
	Seats models.Roster `json:"seats"`
}

type SetCheckinRPCRequest struct {
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

type SetCheckinResponse struct {
	Seat models.Seat `json:"seat"`
}

type ResetAllRequest struct{}

type ResetAllResponse struct {
	Message string        `json:"message"`
	Seats   models.Roster `json:"seats"`
}

// JSONCodec lets the Connect handlers exchange plain Go structs as application/json
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// Service implements the SeatService Connect RPC surface
type Service struct {
	app SeatsApp
}

// NewService creates a new seat RPC service
func NewService(app SeatsApp) *Service {
	return &Service{
		app: app,
	}
}

// GetAllSeats returns the full roster
func (s *Service) GetAllSeats(ctx context.Context, req *connect.Request[GetAllSeatsRequest]) (*connect.Response[GetAllSeatsResponse], error) {
	roster, err := s.app.GetAllSeats(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetAllSeatsResponse{Seats: roster}), nil
}

// SetCheckin marks or unmarks a seat
func (s *Service) SetCheckin(ctx context.Context, req *connect.Request[SetCheckinRPCRequest]) (*connect.Response[SetCheckinResponse], error) {
	seat, err := s.app.SetCheckin(ctx, SetCheckinRequest{
		Number:  req.Msg.Number,
		Name:    req.Msg.Name,
		Checked: req.Msg.Checked,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SetCheckinResponse{Seat: *seat}), nil
}

// ResetAll empties the roster
func (s *Service) ResetAll(ctx context.Context, req *connect.Request[ResetAllRequest]) (*connect.Response[ResetAllResponse], error) {
	roster, err := s.app.ResetAll(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ResetAllResponse{Message: ResetMessage, Seats: roster}), nil
}

// NewSeatServiceHandler builds an http.Handler serving every SeatService procedure and
// returns the path prefix to mount it on
func NewSeatServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetAllSeatsProcedure, connect.NewUnaryHandler(GetAllSeatsProcedure, svc.GetAllSeats, opts...))
	mux.Handle(SetCheckinProcedure, connect.NewUnaryHandler(SetCheckinProcedure, svc.SetCheckin, opts...))
	mux.Handle(ResetAllProcedure, connect.NewUnaryHandler(ResetAllProcedure, svc.ResetAll, opts...))
	return "/" + SeatServiceName + "/", mux
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidSeatNumber):
		return connect.NewError(connect.CodeInvalidArgument, ErrInvalidSeatNumber)
	case errors.Is(err, ErrSeatNotFound):
		return connect.NewError(connect.CodeNotFound, ErrSeatNotFound)
	default:
		log.Error().Err(err).Msg("seat rpc failed")
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
