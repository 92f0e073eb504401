package model

// Kind is the closed tag identifying which executor handles a job.
type Kind string

const (
	KindGptImageGenerate   Kind = "gpt-image-1-generate"
	KindGptImageEdit       Kind = "gpt-image-1-edit"
	KindNanoBananaGenerate Kind = "nano-banana-generate"
	KindNanoBananaEdit     Kind = "nano-banana-edit"
	KindSoraVideo          Kind = "sora-2-video"
)

// Kinds is the full set of job kinds accepted by the service. Every
// entry must have an executor registered at startup.
var Kinds = []Kind{
	KindGptImageGenerate,
	KindGptImageEdit,
	KindNanoBananaGenerate,
	KindNanoBananaEdit,
	KindSoraVideo,
}

// Valid reports whether k belongs to the closed kind set.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// IsVideo reports whether jobs of this kind produce video output.
func (k Kind) IsVideo() bool {
	return k == KindSoraVideo
}
