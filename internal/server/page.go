package server

import "html/template"

// pageData feeds the viewer page template. Content is pre-rendered markdown
// and enters the page unescaped; everything else is plain data.
type pageData struct {
	Title          string
	Content        template.HTML
	Theme          string
	Mermaid        bool
	ShowNavigation bool
	Tree           []navNode
}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `{{define "navtree"}}<ul>
{{range .}}{{if .IsDir}}<li class="dir"><details open><summary>{{.Name}}</summary>{{template "navtree" .Children}}</details></li>
{{else}}<li class="file{{if .Active}} active{{end}}"><a href="/{{.Path}}">{{.Name}}</a></li>
{{end}}{{end}}</ul>
{{end}}<!DOCTYPE html>
<html lang="en" data-theme="{{.Theme}}">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg: #ffffff;
            --fg: #1f2328;
            --muted: #656d76;
            --border: #d1d9e0;
            --accent: #0969da;
            --code-bg: #f6f8fa;
            --sidebar-bg: #f6f8fa;
        }
        [data-theme="dark"] {
            --bg: #0d1117;
            --fg: #e6edf3;
            --muted: #8d96a0;
            --border: #30363d;
            --accent: #4493f8;
            --code-bg: #161b22;
            --sidebar-bg: #161b22;
        }
        @media (prefers-color-scheme: dark) {
            [data-theme="auto"] {
                --bg: #0d1117;
                --fg: #e6edf3;
                --muted: #8d96a0;
                --border: #30363d;
                --accent: #4493f8;
                --code-bg: #161b22;
                --sidebar-bg: #161b22;
            }
        }
        * { box-sizing: border-box; }
        body {
            margin: 0;
            background: var(--bg);
            color: var(--fg);
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
            line-height: 1.6;
        }
        body.with-nav { display: flex; }
        #sidebar {
            flex: 0 0 260px;
            min-height: 100vh;
            padding: 16px 8px;
            background: var(--sidebar-bg);
            border-right: 1px solid var(--border);
            font-size: 14px;
            overflow-y: auto;
        }
        #sidebar ul { list-style: none; margin: 0; padding-left: 16px; }
        #sidebar > ul { padding-left: 0; }
        #sidebar li { margin: 2px 0; }
        #sidebar summary { cursor: pointer; color: var(--muted); }
        #sidebar a { color: var(--fg); text-decoration: none; display: block; padding: 2px 6px; border-radius: 4px; }
        #sidebar a:hover { background: var(--border); }
        #sidebar li.active > a { background: var(--accent); color: #ffffff; }
        main.markdown-body {
            flex: 1;
            max-width: 860px;
            margin: 0 auto;
            padding: 32px 24px 64px;
            overflow-x: hidden;
        }
        .markdown-body h1, .markdown-body h2 {
            border-bottom: 1px solid var(--border);
            padding-bottom: .3em;
        }
        .markdown-body a { color: var(--accent); }
        .markdown-body img { max-width: 100%; }
        .markdown-body code {
            background: var(--code-bg);
            padding: .2em .4em;
            border-radius: 6px;
            font-family: ui-monospace, SFMono-Regular, "SF Mono", Menlo, Consolas, monospace;
            font-size: 85%;
        }
        .markdown-body pre {
            background: var(--code-bg);
            padding: 16px;
            border-radius: 6px;
            overflow-x: auto;
        }
        .markdown-body pre code { background: none; padding: 0; font-size: 100%; }
        .markdown-body blockquote {
            margin: 0;
            padding: 0 1em;
            color: var(--muted);
            border-left: .25em solid var(--border);
        }
        .markdown-body table { border-collapse: collapse; display: block; overflow-x: auto; }
        .markdown-body th, .markdown-body td { border: 1px solid var(--border); padding: 6px 13px; }
        .markdown-body tr:nth-child(2n) { background: var(--code-bg); }
        .markdown-body hr { border: 0; border-top: 1px solid var(--border); }
        .markdown-body input[type="checkbox"] { margin-right: .5em; }
        pre.mermaid { background: none; text-align: center; }
        #theme-toggle {
            position: fixed;
            top: 12px;
            right: 12px;
            padding: 4px 12px;
            font-size: 13px;
            color: var(--fg);
            background: var(--code-bg);
            border: 1px solid var(--border);
            border-radius: 16px;
            cursor: pointer;
        }
    </style>
</head>
<body{{if .ShowNavigation}} class="with-nav"{{end}}>
    {{if .ShowNavigation}}<nav id="sidebar">
{{template "navtree" .Tree}}    </nav>
    {{end}}<main class="markdown-body">
{{.Content}}
    </main>
    <button id="theme-toggle" title="Switch theme">{{.Theme}}</button>
    <script>
        (function () {
            var root = document.documentElement;
            var button = document.getElementById("theme-toggle");
            var themes = ["auto", "light", "dark"];
            var stored = localStorage.getItem("mdserve-theme");
            if (themes.indexOf(stored) >= 0) {
                root.setAttribute("data-theme", stored);
            }
            function label() {
                button.textContent = root.getAttribute("data-theme");
            }
            button.addEventListener("click", function () {
                var current = root.getAttribute("data-theme");
                var next = themes[(themes.indexOf(current) + 1) % themes.length];
                root.setAttribute("data-theme", next);
                localStorage.setItem("mdserve-theme", next);
                label();
            });
            label();
        })();
    </script>
    <script>
        (function () {
            var ws;
            function connect() {
                var protocol = location.protocol === "https:" ? "wss:" : "ws:";
                ws = new WebSocket(protocol + "//" + location.host + "/ws");
                ws.onmessage = function (event) {
                    var message = JSON.parse(event.data);
                    if (message.type === "reload") {
                        window.location.reload();
                    }
                };
                ws.onclose = function () {
                    setTimeout(connect, 2000);
                };
            }
            connect();
            setInterval(function () {
                if (ws && ws.readyState === WebSocket.OPEN) {
                    ws.send(JSON.stringify({ type: "ping" }));
                }
            }, 30000);
        })();
    </script>
    {{if .Mermaid}}<script type="module">
        import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
        document.querySelectorAll("code.language-mermaid").forEach(function (block) {
            var pre = document.createElement("pre");
            pre.className = "mermaid";
            pre.textContent = block.textContent;
            block.closest("pre").replaceWith(pre);
        });
        var theme = document.documentElement.getAttribute("data-theme");
        var dark = theme === "dark" || (theme === "auto" && window.matchMedia("(prefers-color-scheme: dark)").matches);
        mermaid.initialize({ startOnLoad: false, theme: dark ? "dark" : "default" });
        mermaid.run();
    </script>
    {{end}}</body>
</html>`
