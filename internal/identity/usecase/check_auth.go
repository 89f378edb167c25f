package usecase

import "context"

type CheckAuthOutput struct {
	UserID int64
	Email  string
}

// CheckAuth echoes the session owner. The router has already verified the token.
func (s *Usecase) CheckAuth(ctx context.Context) (*CheckAuthOutput, error) {
	_, span := s.startSpan(ctx, "CheckAuth")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	return &CheckAuthOutput{UserID: clm.UserID, Email: clm.UserEmail}, nil
}
