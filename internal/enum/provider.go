package enum

type AccountProvider string

const (
	ProviderUnselected AccountProvider = "unselected"
	ProviderOutlook    AccountProvider = "outlook"
	ProviderGmail      AccountProvider = "gmail"
	ProviderIMAP       AccountProvider = "imap"
)

func (t AccountProvider) String() string {
	return string(t)
}

func DecodeAccountProvider(s string) AccountProvider {
	switch s {
	case ProviderOutlook.String():
		return ProviderOutlook
	case ProviderGmail.String():
		return ProviderGmail
	case ProviderIMAP.String():
		return ProviderIMAP
	default:
		return ProviderUnselected
	}
}
