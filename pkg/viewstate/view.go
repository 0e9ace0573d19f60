package viewstate

const (
	labelGenerate   = "Generate"
	labelGenerating = "Generating..."
	labelUpload     = "Upload Image"
	labelChange     = "Change Image"
	placeholderSrc  = "Upload or paste an image to start"
	placeholderEdit = "Your edited image will appear here"
)

// View は State から導出される画面上の表示要素です。
type View struct {
	Phase                Phase  `json:"phase"`
	Prompt               string `json:"prompt"`
	OriginalURL          string `json:"original_url,omitempty"`
	OriginalPlaceholder  string `json:"original_placeholder,omitempty"`
	GeneratedURL         string `json:"generated_url,omitempty"`
	GeneratedPlaceholder string `json:"generated_placeholder,omitempty"`
	ShowLoader           bool   `json:"show_loader"`
	ErrorBanner          string `json:"error_banner,omitempty"`
	SubmitEnabled        bool   `json:"submit_enabled"`
	SubmitLabel          string `json:"submit_label"`
	UploadLabel          string `json:"upload_label"`
}

// View は State を表示要素に変換します。
// Loading 中は生成画像の代わりにローダーを出し、送信ボタンを無効にします。
func (s State) View() View {
	v := View{
		Phase:         s.Phase,
		Prompt:        s.Prompt,
		ShowLoader:    s.Phase == PhaseLoading,
		ErrorBanner:   s.ErrorMessage,
		SubmitEnabled: s.CanSubmit(),
		SubmitLabel:   labelGenerate,
		UploadLabel:   labelUpload,
	}

	if s.Source != nil {
		v.OriginalURL = s.Source.DisplayURL
		v.UploadLabel = labelChange
	} else {
		v.OriginalPlaceholder = placeholderSrc
	}

	switch {
	case v.ShowLoader:
		v.SubmitLabel = labelGenerating
	case s.Generated != nil:
		v.GeneratedURL = s.Generated.DataURL
	default:
		v.GeneratedPlaceholder = placeholderEdit
	}
	return v
}
