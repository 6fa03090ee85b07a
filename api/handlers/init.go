package handlers

import (
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/services"
)

type APIHandlers struct {
	Accounts *AccountsHandler
	Folders  *FoldersHandler
	Messages *MessagesHandler
}

func InitHandlers(s *services.Services, r *repository.Repositories) *APIHandlers {
	return &APIHandlers{
		Accounts: NewAccountsHandler(s, r),
		Folders:  NewFoldersHandler(r),
		Messages: NewMessagesHandler(s, r),
	}
}
