package browser

// snapshotScript collects one descriptor per rendered img element, in
// document order. For picture-grouped elements it includes the source
// children whose media condition currently matches, with the chosen img
// appended last, so a grouping with zero matching sources still carries
// at least the chosen element. srcsetCandidateUrls is filled Go-side.
const snapshotScript = `(() => {
	const describe = (el) => ({
		tagName: el.tagName,
		effectiveSrc: el.currentSrc || el.src || '',
		srcsetRaw: el.getAttribute('srcset') || '',
		srcsetCandidateUrls: [],
		sizesRaw: el.getAttribute('sizes') || '',
		mediaRaw: el.getAttribute('media') || '',
		renderedWidth: el.clientWidth || 0,
		renderedHeight: el.clientHeight || 0,
		reportedIntrinsicWidth: el.naturalWidth || 0,
		reportedIntrinsicHeight: el.naturalHeight || 0,
		isPicture: false,
	});
	return Array.from(document.querySelectorAll('img')).map((img) => {
		const d = describe(img);
		const parent = img.parentElement;
		if (parent && parent.tagName === 'PICTURE') {
			d.isPicture = true;
			const alternatives = Array.from(parent.querySelectorAll('source'))
				.filter((s) => !s.media || window.matchMedia(s.media).matches)
				.map(describe);
			alternatives.push(describe(img));
			d.alternatives = alternatives;
		}
		return d;
	});
})()`

// sizeProbeScript resolves with the decoded pixel dimensions of the URL
// substituted at %s, or rejects on load or decode failure. No timeout of
// its own: the session deadline bounds it.
const sizeProbeScript = `new Promise((resolve, reject) => {
	const img = new Image();
	img.addEventListener('load', () => resolve({ width: img.naturalWidth, height: img.naturalHeight }));
	img.addEventListener('error', () => reject(new Error('image load failed')));
	img.src = %s;
})`
