package live

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// clientScript mirrors browser events to the server and swaps in the body
// it sends back. Only listener nodes stamped by the server are reported.
const clientScript = `(function () {
  var root = document.getElementById("om-root");
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  var ws = new WebSocket(proto + "//" + location.host + root.dataset.ws +
    "?codec=json&session=" + encodeURIComponent(root.dataset.session));
  function send(m) { if (ws.readyState === 1) ws.send(JSON.stringify(m)); }
  ws.onmessage = function (e) {
    var u = JSON.parse(e.data);
    if (u.error) console.warn("objectmodel:", u.error);
    if (typeof u.body === "string") root.innerHTML = u.body;
    if (u.path && u.path !== location.pathname) history.pushState({}, "", u.path);
    document.documentElement.setAttribute("data-om-ready", "1");
  };
  ["click", "input", "change", "submit"].forEach(function (type) {
    root.addEventListener(type, function (ev) {
      var el = ev.target.closest ? ev.target.closest("[data-om-listen]") : null;
      if (!el) return;
      if ((type === "click" && el.tagName === "A") || type === "submit") ev.preventDefault();
      send({ kind: "event", listener: el.getAttribute("data-om-listen"), event: type });
    });
  });
  window.addEventListener("popstate", function () {
    send({ kind: "navigate", path: location.pathname });
  });
})();`

// Page is the HTML shell of a live session: the rendered body inside a
// root container plus the client script. connectToken is handed back on
// the WebSocket handshake.
func Page(title, connectToken, wsPath, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>`+
			templ.EscapeString(title)+`</title></head><body>`+
			`<div id="om-root" data-session="`+templ.EscapeString(connectToken)+
			`" data-ws="`+templ.EscapeString(wsPath)+`">`+body+`</div>`+
			`<script>`+clientScript+`</script></body></html>`)
		return err
	})
}
