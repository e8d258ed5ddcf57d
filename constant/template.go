package constant

// MediaConsolePrefix marks console messages emitted by ObserverScript.
const MediaConsolePrefix = "__reel_media__:"

// MultiFrameTemplate is an html/template rendering one sandboxed frame per sniffing resolver,
// so a single page load observes every member of a cohort at once.
const MultiFrameTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="referrer" content="no-referrer">
<style>iframe{width:640px;height:360px;border:0;display:block}</style>
</head>
<body>
{{- range . }}
<iframe sandbox="allow-scripts allow-same-origin allow-forms allow-presentation" allow="autoplay; fullscreen" src="{{ . }}"></iframe>
{{- end }}
</body>
</html>
`

// ObserverScript is injected into every document before its own scripts run.
// It reports media element sources, including ones assigned after load, through the console.
const ObserverScript = `(() => {
  if (window.__reelObserver) return;
  window.__reelObserver = true;
  const prefix = "` + MediaConsolePrefix + `";
  const seen = new Set();
  const report = (src) => {
    if (!src || typeof src !== "string" || src.startsWith("blob:") || seen.has(src)) return;
    seen.add(src);
    console.debug(prefix + src);
  };
  const scan = (root) => {
    root.querySelectorAll && root.querySelectorAll("video, audio, source").forEach((el) => {
      report(el.currentSrc);
      report(el.src);
    });
  };
  const desc = Object.getOwnPropertyDescriptor(HTMLMediaElement.prototype, "src");
  if (desc && desc.set) {
    Object.defineProperty(HTMLMediaElement.prototype, "src", {
      get() { return desc.get.call(this); },
      set(v) { report(String(v)); return desc.set.call(this, v); },
      configurable: true,
    });
  }
  document.addEventListener("loadstart", (e) => {
    const t = e.target;
    if (t && (t.tagName === "VIDEO" || t.tagName === "AUDIO")) report(t.currentSrc || t.src);
  }, true);
  new MutationObserver((records) => {
    for (const r of records) {
      if (r.type === "attributes") {
        report(r.target.src);
        continue;
      }
      r.addedNodes.forEach((n) => {
        if (n.nodeType !== 1) return;
        if (n.tagName === "VIDEO" || n.tagName === "AUDIO" || n.tagName === "SOURCE") report(n.src);
        scan(n);
      });
    }
  }).observe(document.documentElement || document, {
    childList: true,
    subtree: true,
    attributes: true,
    attributeFilter: ["src"],
  });
  document.addEventListener("DOMContentLoaded", () => scan(document));
})();`
