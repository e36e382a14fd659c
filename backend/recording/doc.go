// Package recording provides a renderer that keeps every submitted draw in
// memory instead of rasterizing it.
//
// It is the backend of choice for tests and tooling: each Submit becomes a
// Submission holding a copy of the batch geometry, the shader key, the
// pipeline state and a reference into a per-frame texture pool.
//
//	r := recording.New()
//	tr := f3d.New(r)
//	if _, err := tr.RunFrame(ctx, stream, segs); err != nil {
//		return err
//	}
//	for _, s := range r.Submissions() {
//		fmt.Println(s.ShaderKey, s.Triangles())
//	}
//
// Importing the package registers the "recording" backend.
package recording
