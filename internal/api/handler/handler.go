package handler

import "spartab/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Session *SessionHandler
	Draw    *DrawHandler
	Ballot  *BallotHandler
	Tab     *TabHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Session: NewSessionHandler(svc.Session),
		Draw:    NewDrawHandler(svc.Draw),
		Ballot:  NewBallotHandler(svc.Ballot),
		Tab:     NewTabHandler(svc.Tab, svc.Rating, svc.Export),
	}
}
