package notification

import (
	"context"
	"fmt"
	"log/slog"

	"credencia/internal/professional/models"
)

const confirmationSubject = "Confirmação de Cadastro – Credencia"

const confirmationBody = `Olá,

Seu cadastro foi realizado com sucesso em nosso sistema.

Em breve nossa equipe fará a validação das informações e você receberá novas instruções por e-mail.

Atenciosamente,
Equipe Credencia`

// Service composes registrant-facing emails and hands them to a Provider. It
// satisfies the professional service's Notifier interface.
type Service struct {
	provider Provider
	logger   *slog.Logger
}

func NewService(provider Provider, logger *slog.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

// SendConfirmation acknowledges a freshly submitted registration.
func (s *Service) SendConfirmation(ctx context.Context, p *models.Professional) error {
	msg := Message{
		To:      p.Email,
		Subject: confirmationSubject,
		Body:    confirmationBody,
	}
	if err := s.provider.Send(ctx, msg); err != nil {
		return fmt.Errorf("confirmation email to %s: %w", p.Email, err)
	}
	s.logger.InfoContext(ctx, "confirmation email sent", "professional_id", p.ID, "to", p.Email)
	return nil
}

// SendStatusChange tells the registrant their review state moved.
func (s *Service) SendStatusChange(ctx context.Context, p *models.Professional) error {
	display := p.Status.Display()
	msg := Message{
		To:      p.Email,
		Subject: fmt.Sprintf("Atualização de Status - Credencia: %s", display),
		Body:    fmt.Sprintf("Olá %s, o status do seu cadastro mudou para: %s.", p.Name, display),
	}
	if err := s.provider.Send(ctx, msg); err != nil {
		return fmt.Errorf("status email to %s: %w", p.Email, err)
	}
	s.logger.InfoContext(ctx, "status change email sent",
		"professional_id", p.ID,
		"to", p.Email,
		"status", p.Status,
	)
	return nil
}
