package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// AdminLogin renders the password form.
func AdminLogin(cfg SiteConfig, showError bool, csrfToken string) templ.Component {
	return Layout(cfg, PageMeta{Title: "Admin"}, templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h1>Admin</h1>`)
		if showError {
			w.printf(`<p class="error">Wrong password.</p>`)
		}
		w.printf(`<form method="post" action="/admin/login/">`)
		w.printf(`<input type="hidden" name="_csrf" value="%s">`, esc(csrfToken))
		w.printf(`<label>Password <input type="password" name="password" autocomplete="current-password" required></label>`)
		w.printf(`<button type="submit">Log in</button></form>`)
		return w.err
	}))
}

// AdminDashboard lists discovered folders and uploads, with the upload form.
func AdminDashboard(cfg SiteConfig, folders []FolderStat, uploads []Upload, message, csrfToken string) templ.Component {
	return Layout(cfg, PageMeta{Title: "Admin"}, templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.printf(`<h1>Admin</h1>`)
		if message != "" {
			w.printf(`<p class="notice">%s</p>`, esc(message))
		}
		w.printf(`<form method="post" action="/admin/logout/"><input type="hidden" name="_csrf" value="%s"><button type="submit">Log out</button></form>`, esc(csrfToken))

		w.printf(`<h2>Upload</h2>`)
		w.printf(`<form method="post" action="/admin/upload/" enctype="multipart/form-data">`)
		w.printf(`<input type="hidden" name="_csrf" value="%s">`, esc(csrfToken))
		w.printf(`<label>Folder <input name="folder" pattern="[a-z0-9][a-z0-9_-]*" required></label>`)
		w.printf(`<input type="file" name="image" accept="image/*" required>`)
		w.printf(`<button type="submit">Upload</button></form>`)

		w.printf(`<h2>Folders</h2><table class="folders"><thead><tr><th>Folder</th><th>Mode</th><th>Entries</th><th>Probes</th><th>Discovered</th><th></th></tr></thead><tbody>`)
		for _, f := range folders {
			w.printf(`<tr><td><a href="%s">%s</a></td><td>%s</td><td>%d</td><td>%d</td><td>%s</td>`,
				esc(GalleryURL(f.Folder)), esc(f.Folder), esc(f.Mode), f.Entries, f.Probes, esc(f.DiscoveredAt))
			w.printf(`<td><form method="post" action="/admin/rediscover/%s/"><input type="hidden" name="_csrf" value="%s"><button type="submit">Rediscover</button></form></td></tr>`,
				esc(PathEscape(f.Folder)), esc(csrfToken))
		}
		w.printf(`</tbody></table>`)

		w.printf(`<h2>Uploads</h2><ul class="uploads" data-csrf="%s">`, esc(csrfToken))
		for _, u := range uploads {
			w.printf(`<li><a href="%s"><img src="%s" alt="%s" width="120"></a> %s/%s (%dx%d, %s) `,
				esc(u.URL), esc(u.ThumbURL), esc(u.OriginalName), esc(u.Folder), esc(u.Filename), u.Width, u.Height, esc(u.UploadedAt))
			w.printf(`<button type="button" data-delete="/admin/images/%s/%s/">Delete</button></li>`,
				esc(PathEscape(u.Folder)), esc(PathEscape(u.Filename)))
		}
		w.printf(`</ul><script src="/public/admin.js" defer></script>`)
		return w.err
	}))
}
