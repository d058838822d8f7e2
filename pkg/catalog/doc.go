// Package catalog manages the video library: browsing titles by category
// and issuing short-lived presigned playback URLs from S3-compatible
// storage.
//
// Media objects live in a private bucket and are never served directly.
// Playback returns a PlaybackGrant whose URL expires after the configured
// TTL, so leaked links go stale quickly. Subscription gating is a transport
// concern and stays out of this package.
//
// Usage:
//
//	signer, err := catalog.NewPlaybackSigner(ctx, storageCfg)
//	if err != nil {
//		return err
//	}
//	svc := catalog.NewService(catalog.NewPGVideoStore(pool), signer)
//
//	grant, err := svc.Playback(ctx, videoID)
package catalog
