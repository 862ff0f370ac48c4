package drive

import (
	"context"
	"fmt"
	"strings"
)

// Phase identifies where in the copy+delete sequence a relocation stood when
// it failed.
type Phase string

const (
	// PhaseComputeTarget covers source-key parsing and destination
	// derivation; failures here leave the store untouched.
	PhaseComputeTarget Phase = "compute_target"
	// PhaseProbeTarget covers the destination existence check; failures
	// here, including an occupied destination, leave the store untouched.
	PhaseProbeTarget Phase = "probe_target"
	// PhaseCopy covers the copy to the destination key; failures here leave
	// the source object intact and nothing is lost.
	PhaseCopy Phase = "copy"
	// PhaseDeleteSource covers the delete of the source key; failures here
	// leave BOTH keys present. There is no compensating rollback; callers
	// retry the delete alone or clean up manually.
	PhaseDeleteSource Phase = "delete_source"
)

// RelocationError reports a failed relocation together with the phase it
// failed in, so the partial-failure window is observable rather than
// implicit.
type RelocationError struct {
	Phase     Phase
	SourceKey string
	TargetKey string
	Err       error
}

func (e *RelocationError) Error() string {
	if e.Phase == PhaseDeleteSource {
		return fmt.Sprintf("relocation %s: delete of source failed after copy, both %q and %q exist: %v", e.Phase, e.SourceKey, e.TargetKey, e.Err)
	}
	return fmt.Sprintf("relocation %s (%q -> %q): %v", e.Phase, e.SourceKey, e.TargetKey, e.Err)
}

func (e *RelocationError) Unwrap() error { return e.Err }

// RelocationResult describes a successfully relocated object.
type RelocationResult struct {
	OldKey string
	Key    string
	Folder string
	Name   string
}

// Relocator implements rename and move as copy-to-new-key followed by
// delete-of-old-key, since the store offers no atomic rename. The
// destination is probed first and an occupied key fails with
// ErrDestinationExists rather than overwriting. Within one call the copy
// strictly precedes the delete.
type Relocator struct {
	Store RelocationStore
}

// Rename relocates key to a new base name within its folder. The extension
// is preserved and the new base is sanitized before use; a new name that
// already carries the extension is not suffixed twice.
func (r Relocator) Rename(ctx context.Context, key, newBase string) (RelocationResult, error) {
	folder, name, err := ParseKey(key)
	if err != nil {
		return RelocationResult{}, &RelocationError{Phase: PhaseComputeTarget, SourceKey: key, Err: err}
	}
	_, ext := SplitExt(name)
	base := SanitizeBaseName(newBase)
	if ext != "" && len(base) > len(ext) && strings.HasSuffix(base, ext) {
		base = strings.TrimSuffix(base, ext)
	}
	dst := BuildKey(folder, base, ext)
	return r.relocate(ctx, key, dst)
}

// Move relocates key to another folder, keeping its filename. The target
// folder is normalized before use.
func (r Relocator) Move(ctx context.Context, key, newFolder string) (RelocationResult, error) {
	_, name, err := ParseKey(key)
	if err != nil {
		return RelocationResult{}, &RelocationError{Phase: PhaseComputeTarget, SourceKey: key, Err: err}
	}
	dst := BuildKey(NormalizeFolder(newFolder), name, "")
	return r.relocate(ctx, key, dst)
}

func (r Relocator) relocate(ctx context.Context, src, dst string) (RelocationResult, error) {
	folder, name, err := ParseKey(dst)
	if err != nil {
		return RelocationResult{}, &RelocationError{Phase: PhaseComputeTarget, SourceKey: src, TargetKey: dst, Err: err}
	}
	result := RelocationResult{OldKey: src, Key: dst, Folder: folder, Name: name}
	if dst == src {
		// Nothing to relocate; skip the store round trips.
		return result, nil
	}
	taken, err := r.Store.Exists(ctx, dst)
	if err != nil {
		return RelocationResult{}, &RelocationError{Phase: PhaseProbeTarget, SourceKey: src, TargetKey: dst, Err: err}
	}
	if taken {
		return RelocationResult{}, &RelocationError{Phase: PhaseProbeTarget, SourceKey: src, TargetKey: dst, Err: ErrDestinationExists}
	}
	if err := r.Store.Copy(ctx, src, dst); err != nil {
		return RelocationResult{}, &RelocationError{Phase: PhaseCopy, SourceKey: src, TargetKey: dst, Err: err}
	}
	if err := r.Store.Delete(ctx, src); err != nil {
		return RelocationResult{}, &RelocationError{Phase: PhaseDeleteSource, SourceKey: src, TargetKey: dst, Err: err}
	}
	return result, nil
}
